package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
)

// MaxUnboundedSteps is the horizon within which a run with neither
// max_steps nor time_budget must reach its stopping temperature.
const MaxUnboundedSteps = 100_000_000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d >= 0
	}); err != nil {
		panic(err)
	}
	return v
}

// LoadRunConfig loads and parses a run configuration file
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseRunConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate performs struct and cross-field validation on the configuration
func Validate(cfg *RunConfig) error {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if kind, err := schedule.ParseKind(cfg.Schedule.Kind); err == nil {
		cfg.Schedule.Kind = string(kind)
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s: failed %q validation (value %v)", fieldPath(fe), fe.Tag(), fe.Value())
		}
		return err
	}

	sched, err := cfg.Schedule.Build()
	if err != nil {
		return fmt.Errorf("schedule: %w", err)
	}

	if err := validateTermination(cfg, sched); err != nil {
		return err
	}

	return nil
}

// validateTermination rejects unbounded runs whose schedule does not cool
// to the stopping temperature within MaxUnboundedSteps.
func validateTermination(cfg *RunConfig, sched schedule.Schedule) error {
	if cfg.MaxSteps > 0 || cfg.TimeBudget != "" {
		return nil
	}
	if schedule.StepsToReach(sched, cfg.StoppingTemperature, MaxUnboundedSteps) == 0 {
		return fmt.Errorf("stopping_temperature %v is not reached by the %s schedule within %d steps; set max_steps or time_budget",
			cfg.StoppingTemperature, sched.Name(), MaxUnboundedSteps)
	}
	return nil
}

// fieldPath renders "RunConfig.schedule.kind" as "schedule.kind"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}
