// Package services implements the dashboard's business logic between the
// feed sources, the store and the HTTP/WebSocket/CLI surfaces.
//
// # Refresh cycle
//
// DashboardService.RefreshOnce fetches both feeds concurrently and waits for
// both. A feed whose fetch or parse fails keeps its previous collection and
// is marked stale; the other feed is applied normally. Aggregates are always
// recomputed from whatever collections are current, and the result is
// pushed to WebSocket clients as a dashboard:snapshot message.
//
// # Scheduling
//
// Scheduler runs one cycle immediately and then one per tick. A slow cycle
// does not delay or cancel the next one, so cycles may overlap; the store
// keeps each replacement and summary computation atomic.
//
// # Common Service Pattern
//
//	svc := services.NewDashboardService(services.DashboardDeps{
//	    Source: src,
//	    Store:  store.NewMemoryStore(),
//	    Hub:    hub,
//	    Logger: logger,
//	})
//	report := svc.RefreshOnce(ctx)
package services
