package memory

import (
	"github.com/shirou/gopsutil/v3/mem"

	"album-engine/internal/logging"
)

// Tier buckets the host by total physical memory. The batch scheduler
// sizes its work units from the tier.
type Tier int

const (
	// TierLow is 2 GiB of RAM or less.
	TierLow Tier = iota
	// TierMid is more than 2 GiB up to 4 GiB.
	TierMid
	// TierHigh is anything above 4 GiB.
	TierHigh
)

const (
	lowTierLimit = 2 << 30
	midTierLimit = 4 << 30
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMid:
		return "mid"
	default:
		return "high"
	}
}

// DetectTier classifies the host by total physical memory. When the
// probe fails the middle tier is assumed.
func DetectTier() Tier {
	vm, err := mem.VirtualMemory()
	if err != nil {
		logging.Warn("Failed to probe system memory, assuming mid tier: %v", err)
		return TierMid
	}
	return TierForBytes(vm.Total)
}

// TierForBytes maps a total-memory figure to a tier.
func TierForBytes(total uint64) Tier {
	switch {
	case total <= lowTierLimit:
		return TierLow
	case total <= midTierLimit:
		return TierMid
	default:
		return TierHigh
	}
}

// TotalBytes returns total physical memory, or 0 when unknown.
func TotalBytes() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.Total
}
