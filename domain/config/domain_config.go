package config

import "fmt"

// DomainConfig holds the configurable rules of a workflow canvas
type DomainConfig struct {
	// Graph constraints. Zero means unlimited.
	MaxNodesPerGraph int
	MaxEdgesPerGraph int

	// Edge policy
	AllowSelfConnections bool
	AllowDuplicateEdges  bool

	// StrictPositionUpdates turns a move of a missing node into
	// ErrStaleNodeReference instead of a silent no-op.
	StrictPositionUpdates bool

	// Canvas defaults
	SeedStartNode bool
	StartNodeX    float64
	StartNodeY    float64

	// Viewport limits
	MinZoom    float64
	MaxZoom    float64
	FitPadding float64
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxNodesPerGraph: 0,
		MaxEdgesPerGraph: 0,

		AllowSelfConnections: true,
		AllowDuplicateEdges:  false,

		StrictPositionUpdates: false,

		SeedStartNode: true,
		StartNodeX:    250,
		StartNodeY:    5,

		MinZoom:    0.1,
		MaxZoom:    4,
		FitPadding: 0.1,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Bound memory per canvas
	config.MaxNodesPerGraph = 2000
	config.MaxEdgesPerGraph = 10000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()
	config.StrictPositionUpdates = true
	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxNodesPerGraph < 0 || c.MaxEdgesPerGraph < 0 {
		return fmt.Errorf("graph limits cannot be negative")
	}
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		return fmt.Errorf("invalid zoom range [%v, %v]", c.MinZoom, c.MaxZoom)
	}
	if c.FitPadding < 0 || c.FitPadding >= 0.5 {
		return fmt.Errorf("fit padding must be in [0, 0.5)")
	}
	return nil
}
