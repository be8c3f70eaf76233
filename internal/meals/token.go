package meals

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenGenerator produces scannable participant tokens. It knows nothing
// about the registry; collisions are rejected by the store at insert time.
type TokenGenerator interface {
	Generate() string
}

type timeRandomTokens struct {
	prefix string
	now    func() time.Time
}

// NewTokenGenerator returns tokens shaped PREFIX-<millis base36>-<12 hex>.
func NewTokenGenerator(prefix string) TokenGenerator {
	if prefix == "" {
		prefix = "HACK"
	}
	return &timeRandomTokens{prefix: prefix, now: time.Now}
}

func (g *timeRandomTokens) Generate() string {
	millis := strconv.FormatInt(g.now().UnixMilli(), 36)
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return g.prefix + "-" + strings.ToUpper(millis) + "-" + random
}
