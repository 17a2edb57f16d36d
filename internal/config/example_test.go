package config_test

import (
	"fmt"
	"time"

	"github.com/workplus/workplus/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Poll Interval:", cfg.Status.PollInterval)
	fmt.Println("Idle Threshold:", cfg.Status.IdleThreshold)
	fmt.Println("Screenshot Interval:", cfg.Screenshot.Interval)
	// Output:
	// Poll Interval: 1s
	// Idle Threshold: 30s
	// Screenshot Interval: 5m30s
}

// Example of setting the web port with validation
func ExampleConfig_SetWebPort() {
	cfg := config.Default()

	if err := cfg.SetWebPort(8080); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Web port set to:", cfg.Web.Port)
	}

	if err := cfg.SetWebPort(70000); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Web port set to: 8080
	// Error: port must be between 1 and 65535, got 70000
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Status.PollInterval = time.Minute

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Invalid config: poll interval (1m0s) must be shorter than idle threshold (30s)
}
