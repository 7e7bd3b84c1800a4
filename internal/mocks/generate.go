// Package mocks provides gomock implementations of the onboarding ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	profiles := mocks.NewMockProfileStore(ctrl)
//	profiles.EXPECT().Get(gomock.Any(), "u1").Return(p, nil)
package mocks

// Generate mocks for ProfileStore, DraftStore, CommitLock and ActionLogger from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ports_mock.go github.com/rithish08/fyke-connect-india-sub001/internal/ports ProfileStore,DraftStore,CommitLock,ActionLogger
