package game

// PlatformGenerator builds the level layout for a seed.
type PlatformGenerator interface {
	Generate(seed []byte, count int) ([]Platform, []PlatformDraw)
}

// Replayer re-simulates submitted moves against a layout.
type Replayer interface {
	Replay(platforms []Platform, moves []Move) *ReplayTrace
}

// SeededGenerator is the production PlatformGenerator.
type SeededGenerator struct {
	cfg Config
}

func NewSeededGenerator(cfg Config) *SeededGenerator {
	return &SeededGenerator{cfg: cfg}
}

func (g *SeededGenerator) Generate(seed []byte, count int) ([]Platform, []PlatformDraw) {
	return GeneratePlatformsWithDraws(seed, count, g.cfg)
}

// PhysicsReplayer is the production Replayer.
type PhysicsReplayer struct {
	cfg Config
}

func NewPhysicsReplayer(cfg Config) *PhysicsReplayer {
	return &PhysicsReplayer{cfg: cfg}
}

func (r *PhysicsReplayer) Replay(platforms []Platform, moves []Move) *ReplayTrace {
	return Replay(platforms, moves, r.cfg)
}
