package mocks

//go:generate mockgen -destination=./mock_source.go -package=mocks github.com/rxtech-lab/argo-signals/pkg/marketdata Source
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-signals/internal/notification Notifier
//go:generate mockgen -destination=./mock_seen_store.go -package=mocks github.com/rxtech-lab/argo-signals/internal/notification SeenStore
//go:generate mockgen -destination=./mock_analysis.go -package=mocks github.com/rxtech-lab/argo-signals/internal/analysis Journal,Publisher,Relay
