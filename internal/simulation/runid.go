package simulation

import (
	"fmt"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// runNamespace scopes run identifiers so they cannot collide with other
// name-based UUIDs.
var runNamespace = uuid.MustParse("6f1c3a52-8d0e-4b7a-9c41-2e7d9b3f0a68")

// RunID derives a stable UUIDv5 from the canonical JSON encoding of p.
// Identical parameters always yield the same identifier.
func RunID(p domain.Params) (string, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	return uuid.NewSHA1(runNamespace, b).String(), nil
}
