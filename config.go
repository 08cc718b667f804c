package cds

// Config holds the settings shared by provers and verifiers
type Config struct {
	// Curve is the scalar field for shares and challenges. It must match the
	// challenge space of the protocol being compiled.
	Curve Curve

	// Parallelism bounds the goroutines used per round. 1 runs clauses serially.
	Parallelism int

	// Audit receives protocol events. Defaults to NullAuditHandler.
	Audit AuditEventHandler
}

// Option configures a Config
type Option func(*Config)

// WithParallelism sets the per-round goroutine bound
func WithParallelism(parallelism int) Option {
	return func(c *Config) {
		c.Parallelism = parallelism
	}
}

// WithAuditHandler sets the audit event handler
func WithAuditHandler(handler AuditEventHandler) Option {
	return func(c *Config) {
		c.Audit = handler
	}
}

// NewConfig creates a validated configuration
func NewConfig(curve Curve, opts ...Option) (*Config, error) {
	cfg := &Config{
		Curve:       curve,
		Parallelism: DefaultParallelism,
		Audit:       &NullAuditHandler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Audit == nil {
		cfg.Audit = &NullAuditHandler{}
	}

	validator := NewDefaultConfigurationValidator()
	result := validator.ValidateCurve(cfg.Curve)
	result.merge(validator.ValidateParallelism(cfg.Parallelism))
	if err := result.Err(ErrInvalidConfiguration); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) audit() AuditEventHandler {
	if c.Audit == nil {
		return &NullAuditHandler{}
	}
	return c.Audit
}

func (c *Config) parallelism() int {
	if c.Parallelism < 1 {
		return DefaultParallelism
	}
	return c.Parallelism
}
