package memory_test

import (
	"testing"

	"github.com/aretw0/btlib/pkg/adapters/memory"
	"github.com/aretw0/btlib/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunTelemetryStoreContract(t, store)
}
