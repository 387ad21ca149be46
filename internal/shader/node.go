package shader

import (
	"log/slog"
	"sync/atomic"

	"github.com/MeKo-Tech/fastnoise/internal/params"
)

// Node owns the Config of one shader-node instance across its lifecycle:
// Update on every parameter change, Evaluate per sample, Finish on teardown.
type Node struct {
	name   string
	logger *slog.Logger
	cfg    atomic.Pointer[Config]
}

// NewNode creates a node without a configuration. Until the first Update,
// Evaluate reports the remap of zero.
func NewNode(name string, logger *slog.Logger) *Node {
	return &Node{name: name, logger: logger}
}

// Name returns the node name.
func (n *Node) Name() string { return n.name }

// Update rebuilds the Config from v and publishes it. Samples already
// running keep the Config they loaded.
func (n *Node) Update(v params.Values) *Config {
	cfg := Build(v, n.log())
	n.cfg.Store(cfg)
	n.log().Debug("Shader node updated", "node", n.name, "params", cfg.values.Summary())
	return cfg
}

// Config returns the current configuration.
func (n *Node) Config() (*Config, bool) {
	cfg := n.cfg.Load()
	return cfg, cfg != nil
}

// Evaluate computes the shader output for one sample.
func (n *Node) Evaluate(req SampleRequest) float64 {
	cfg := n.cfg.Load()
	if cfg == nil {
		return Remap(0)
	}
	return cfg.Sample(req)
}

// Finish releases the configuration.
func (n *Node) Finish() {
	n.cfg.Store(nil)
	n.log().Debug("Shader node finished", "node", n.name)
}

func (n *Node) log() *slog.Logger {
	if n.logger != nil {
		return n.logger
	}
	return slog.Default()
}
