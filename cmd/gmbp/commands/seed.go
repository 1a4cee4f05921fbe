package commands

import (
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// seedFromEnv consults GMBP_SEED, returning nil if it is unset or does not
// parse as a base-10 int64. Callers fall back to clock-seeding in that case.
func seedFromEnv() *int64 {
	raw, ok := os.LookupEnv("GMBP_SEED")
	if !ok {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("GMBP_SEED", raw).Msg("ignoring unparseable GMBP_SEED")
		return nil
	}
	return &v
}

// resolveSeed returns explicit if set, else the value of GMBP_SEED, else nil
// (clock-seeded).
func resolveSeed(explicit *int64) *int64 {
	if explicit != nil {
		return explicit
	}
	return seedFromEnv()
}
