package game

import (
	"testing"
)

func TestSeededGenerator_MatchesGeneratePlatforms(t *testing.T) {
	cfg := DefaultConfig()
	gen := NewSeededGenerator(cfg)
	seed := zeroSeed()

	t.Run("same layout as the free function", func(t *testing.T) {
		platforms, draws := gen.Generate(seed, 12)
		want := GeneratePlatforms(seed, 12, cfg)

		if len(platforms) != len(want) {
			t.Fatalf("Generate() returned %d platforms, want %d", len(platforms), len(want))
		}
		for i := range want {
			if platforms[i] != want[i] {
				t.Errorf("platform %d = %+v, want %+v", i, platforms[i], want[i])
			}
		}
		if len(draws) != 12 {
			t.Errorf("Generate() returned %d draws, want 12", len(draws))
		}
	})

	t.Run("config is captured at construction", func(t *testing.T) {
		narrow := cfg
		narrow.PlatformMinWidth, narrow.PlatformMaxWidth = 50, 50
		platforms, _ := NewSeededGenerator(narrow).Generate(seed, 5)
		for i, p := range platforms[1:] {
			if p.Width != 50 {
				t.Errorf("platform %d width = %v, want 50", i+1, p.Width)
			}
		}
	})
}

func TestPhysicsReplayer_MatchesReplay(t *testing.T) {
	cfg := DefaultConfig()
	platforms := GeneratePlatforms(zeroSeed(), 3, cfg)
	moves := perfectMoves(platforms, []float64{500, 520, 480}, cfg)

	got := NewPhysicsReplayer(cfg).Replay(platforms, moves)
	want := Replay(platforms, moves, cfg)

	if got.BlocksPassed != want.BlocksPassed || got.Score != want.Score || got.PerfectCount != want.PerfectCount {
		t.Errorf("Replay() = %+v, want %+v", got, want)
	}
	if got.BlocksPassed != 3 {
		t.Errorf("BlocksPassed = %d, want 3", got.BlocksPassed)
	}
}

func TestInterfacesSatisfied(t *testing.T) {
	var _ PlatformGenerator = (*SeededGenerator)(nil)
	var _ Replayer = (*PhysicsReplayer)(nil)
}
