package evm

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManager hands out nonces per sender so an approve followed quickly
// by sendToMany does not reuse the approve's nonce before the node's
// pending pool reflects it.
type NonceManager struct {
	mu     sync.Mutex
	nonces map[common.Address]uint64 // next nonce to hand out
}

// NewNonceManager creates a new NonceManager.
func NewNonceManager() *NonceManager {
	return &NonceManager{
		nonces: make(map[common.Address]uint64),
	}
}

// Next returns max(pending, local) for the sender and advances the local
// counter past it.
func (nm *NonceManager) Next(sender common.Address, pending uint64) uint64 {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nonce := pending
	if local, ok := nm.nonces[sender]; ok && local > pending {
		nonce = local
	}
	nm.nonces[sender] = nonce + 1
	return nonce
}

// Reset forgets the sender so the next call trusts the node again.
// Called after a broadcast fails.
func (nm *NonceManager) Reset(sender common.Address) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	delete(nm.nonces, sender)
}
