// Copyright 2025 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"

	"github.com/canonical/dashboard-auth-service/internal/logging"
)

type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

var _ StoreInterface = (*HybridStore)(nil)

// HybridStore picks one backend at construction time and routes every
// operation to it. There is no runtime failover in either direction: a
// remote failure surfaces to the caller, it never silently switches the
// service back to the local backend.
type HybridStore struct {
	StoreInterface

	backend Backend
}

func (h *HybridStore) Backend() Backend {
	return h.backend
}

// NewHybridStore selects the remote backend when one is supplied and the
// local backend otherwise. An empty local backend is seeded with default
// data so a fresh install is usable.
func NewHybridStore(ctx context.Context, remote StoreInterface, local *LocalStore, logger logging.LoggerInterface) (*HybridStore, error) {
	if remote != nil {
		logger.Infof("storage backend: remote")
		return &HybridStore{StoreInterface: remote, backend: BackendRemote}, nil
	}

	if local == nil {
		return nil, fmt.Errorf("no storage backend available")
	}

	if local.IsEmpty() {
		logger.Infof("local store empty, seeding default data")
		if err := Seed(ctx, local); err != nil {
			return nil, fmt.Errorf("failed to seed local store: %w", err)
		}
	}

	logger.Infof("storage backend: local")
	return &HybridStore{StoreInterface: local, backend: BackendLocal}, nil
}
