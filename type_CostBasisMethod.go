package tradebook

import (
	"fmt"
	"strings"
)

// CostBasisMethod defines the method for calculating cost basis.
type CostBasisMethod int

const (
	// FIFO (First-In, First-Out) calculates the cost basis by assuming the first shares purchased are the first ones sold.
	FIFO CostBasisMethod = iota
	// AverageCost calculates the cost basis by averaging the cost of all shares.
	AverageCost
)

// Methods lists all the supported cost basis methods.
var Methods = []CostBasisMethod{FIFO, AverageCost}

func (m CostBasisMethod) String() string {
	switch m {
	case AverageCost:
		return "AVG"
	case FIFO:
		return "FIFO"
	default:
		return "unknown"
	}
}

// ParseCostBasisMethod parses a string into a CostBasisMethod.
func ParseCostBasisMethod(s string) (CostBasisMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "avg", "average":
		return AverageCost, nil
	case "fifo":
		return FIFO, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

func (m CostBasisMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *CostBasisMethod) UnmarshalText(text []byte) error {
	v, err := ParseCostBasisMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
