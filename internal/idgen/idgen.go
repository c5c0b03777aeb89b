// Package idgen allocates identifiers for new records.
package idgen

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/port"
)

const (
	StrategySequential = "sequential"
	StrategyUUID       = "uuid"
	StrategySnowflake  = "snowflake"
)

const maxAttempts = 8

func New(strategy string, node int64) (port.IDAllocator, error) {
	switch strategy {
	case StrategySequential, "":
		return Sequential{}, nil
	case StrategyUUID:
		return Random{}, nil
	case StrategySnowflake:
		return NewSnowflake(node)
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}

// Sequential returns one plus the largest numeric id. Ids that are not
// decimal integers are skipped.
type Sequential struct{}

func (Sequential) NextID(existing []string) (string, error) {
	var highest int64
	for _, id := range existing {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}

	if highest == math.MaxInt64 {
		return "", fmt.Errorf("sequential ids exhausted")
	}

	return strconv.FormatInt(highest+1, 10), nil
}

type Random struct{}

func (Random) NextID(existing []string) (string, error) {
	return retry(existing, uuid.NewString)
}

type Snowflake struct {
	node *snowflake.Node
}

func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake.NewNode: %w", err)
	}

	return &Snowflake{node: n}, nil
}

func (s *Snowflake) NextID(existing []string) (string, error) {
	return retry(existing, func() string {
		return s.node.Generate().String()
	})
}

func retry(existing []string, next func() string) (string, error) {
	for range maxAttempts {
		id := next()
		if !slices.Contains(existing, id) {
			return id, nil
		}
	}

	return "", fmt.Errorf("no free id after %d attempts", maxAttempts)
}
