package gateway

import (
	"math/rand"

	"github.com/google/uuid"
)

// Simulator produces weighted random transaction outcomes so the failure
// paths can be exercised without a live gateway: 60% approved, 25% declined,
// 15% errored.
type Simulator struct {
	rng *rand.Rand
}

func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a synthetic transaction for the given amount.
func (s *Simulator) Next(amount float64) Transaction {
	tx := Transaction{
		ID:        "SIM-" + uuid.NewString(),
		Reference: "SIM-" + uuid.NewString()[:8],
		Amount:    amount,
	}

	switch roll := s.rng.Float64(); {
	case roll < 0.60:
		tx.Status = TxApproved
	case roll < 0.85:
		tx.Status = TxDeclined
		tx.Message = "transaction declined by issuer"
	default:
		tx.Status = TxError
		tx.Message = "gateway communication error"
	}
	return tx
}
