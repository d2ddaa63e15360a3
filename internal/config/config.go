// Package config loads the immutable dispatcher/simulator tunables from
// a static YAML source at startup, via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable read at startup. Once loaded it is never
// mutated; the dispatcher and simulator both receive it by value.
type Config struct {
	K          int           // max simultaneously serving rooms
	Tick       time.Duration // dispatcher + simulator period
	Slice      time.Duration // round-robin time-slice for equal-priority waiters
	Ambient    float64       // environmental temperature rooms drift toward
	Recovery   float64       // °/minute drift rate toward Ambient when not served
	Hyst       float64       // re-request threshold in ° past target
	RangeCool  [2]float64    // allowed target range for mode COOL
	RangeHeat  [2]float64    // allowed target range for mode HEAT
	Rate       map[string]float64 // fee per minute, keyed by fan speed
	Delta      map[string]float64 // °/minute temperature change, keyed by fan speed
	Prio       map[string]int     // integer priority, keyed by fan speed
	DBPath     string
	ListenPort string
	JWTSecret  string
	Rooms      []RoomSeed // initial room set, used only if the store is empty
}

// RoomSeed describes a room to create on first run when persistence is
// empty; only RoomID is required, the rest default to a safe idle state.
type RoomSeed struct {
	RoomID    string
	RoomType  string
	DailyRate float64
}

// Default returns reasonable values for every tunable, used to seed
// viper defaults so the binary runs sanely without a config file present.
func Default() Config {
	return Config{
		K:         3,
		Tick:      time.Second,
		Slice:     120 * time.Second,
		Ambient:   20.0,
		Recovery:  0.5,
		Hyst:      1.0,
		RangeCool: [2]float64{18, 25},
		RangeHeat: [2]float64{25, 30},
		Rate: map[string]float64{
			"LOW": 1.0 / 3, "MID": 0.5, "HIGH": 1.0,
		},
		Delta: map[string]float64{
			"LOW": 1.0 / 3, "MID": 0.5, "HIGH": 1.0,
		},
		Prio: map[string]int{
			"LOW": 1, "MID": 2, "HIGH": 3,
		},
		DBPath:     "app.db",
		ListenPort: "8080",
		JWTSecret:  "change-me",
		Rooms: []RoomSeed{
			{RoomID: "101", RoomType: "STANDARD", DailyRate: 90},
			{RoomID: "102", RoomType: "STANDARD", DailyRate: 90},
			{RoomID: "103", RoomType: "KING", DailyRate: 140},
		},
	}
}

// Load reads configs/config.yml (if present) over the defaults and
// returns a validated Config. A missing config file is not an error;
// an invalid one, or a config that fails Validate, is.
func Load() (Config, error) {
	cfg := Default()

	viper.SetDefault("scheduler.k", cfg.K)
	viper.SetDefault("scheduler.tick_seconds", cfg.Tick.Seconds())
	viper.SetDefault("scheduler.slice_seconds", cfg.Slice.Seconds())
	viper.SetDefault("thermal.ambient", cfg.Ambient)
	viper.SetDefault("thermal.recovery", cfg.Recovery)
	viper.SetDefault("thermal.hyst", cfg.Hyst)
	viper.SetDefault("thermal.range_cool", cfg.RangeCool[:])
	viper.SetDefault("thermal.range_heat", cfg.RangeHeat[:])
	viper.SetDefault("thermal.rate", cfg.Rate)
	viper.SetDefault("thermal.delta", cfg.Delta)
	viper.SetDefault("thermal.prio", cfg.Prio)
	viper.SetDefault("db.path", cfg.DBPath)
	viper.SetDefault("port", cfg.ListenPort)
	viper.SetDefault("auth.jwt_secret", cfg.JWTSecret)

	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.K = viper.GetInt("scheduler.k")
	cfg.Tick = time.Duration(viper.GetFloat64("scheduler.tick_seconds") * float64(time.Second))
	cfg.Slice = time.Duration(viper.GetFloat64("scheduler.slice_seconds") * float64(time.Second))
	cfg.Ambient = viper.GetFloat64("thermal.ambient")
	cfg.Recovery = viper.GetFloat64("thermal.recovery")
	cfg.Hyst = viper.GetFloat64("thermal.hyst")
	if rc := viper.GetFloat64Slice("thermal.range_cool"); len(rc) == 2 {
		cfg.RangeCool = [2]float64{rc[0], rc[1]}
	}
	if rh := viper.GetFloat64Slice("thermal.range_heat"); len(rh) == 2 {
		cfg.RangeHeat = [2]float64{rh[0], rh[1]}
	}
	if rate := viper.GetStringMap("thermal.rate"); len(rate) > 0 {
		cfg.Rate = toFloatMap(rate)
	}
	if delta := viper.GetStringMap("thermal.delta"); len(delta) > 0 {
		cfg.Delta = toFloatMap(delta)
	}
	if prio := viper.GetStringMap("thermal.prio"); len(prio) > 0 {
		cfg.Prio = toIntMap(prio)
	}
	cfg.DBPath = viper.GetString("db.path")
	cfg.ListenPort = viper.GetString("port")
	cfg.JWTSecret = viper.GetString("auth.jwt_secret")

	return cfg, cfg.Validate()
}

func toFloatMap(in map[string]any) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case int:
			out[k] = float64(n)
		}
	}
	return out
}

func toIntMap(in map[string]any) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		switch n := v.(type) {
		case int:
			out[k] = n
		case float64:
			out[k] = int(n)
		}
	}
	return out
}

// Validate checks the invariants the dispatcher and simulator assume
// hold for the lifetime of the process.
func (c Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("scheduler.k must be >= 1, got %d", c.K)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("scheduler.tick_seconds must be > 0")
	}
	if c.RangeCool[0] >= c.RangeCool[1] {
		return fmt.Errorf("thermal.range_cool must be a non-empty interval")
	}
	if c.RangeHeat[0] >= c.RangeHeat[1] {
		return fmt.Errorf("thermal.range_heat must be a non-empty interval")
	}
	for _, speed := range []string{"LOW", "MID", "HIGH"} {
		if _, ok := c.Rate[speed]; !ok {
			return fmt.Errorf("thermal.rate missing entry for %s", speed)
		}
		if _, ok := c.Delta[speed]; !ok {
			return fmt.Errorf("thermal.delta missing entry for %s", speed)
		}
		if _, ok := c.Prio[speed]; !ok {
			return fmt.Errorf("thermal.prio missing entry for %s", speed)
		}
	}
	return nil
}

// TargetRange returns the allowed [min,max] target-temperature interval
// for the given mode.
func (c Config) TargetRange(mode string) [2]float64 {
	if mode == "HEAT" {
		return c.RangeHeat
	}
	return c.RangeCool
}
