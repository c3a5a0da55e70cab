package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

// Fetch results reported to the observer.
const (
	FetchOK       = "ok"
	FetchNotFound = "not_found"
	FetchError    = "error"
)

// TransitStatusUseCase reads the ferry operator's live status page. Tiers
// are tried in order and the first one whose page contains the status
// area wins.
type TransitStatusUseCase struct {
	url       string
	tiers     []ports.PageFetcher
	extractor ports.StatusExtractor
	observer  ports.FetchObserver
}

// NewTransitStatusUseCase creates the tiered lookup. observer may be nil.
func NewTransitStatusUseCase(
	url string,
	extractor ports.StatusExtractor,
	observer ports.FetchObserver,
	tiers ...ports.PageFetcher,
) *TransitStatusUseCase {
	return &TransitStatusUseCase{
		url:       url,
		tiers:     tiers,
		extractor: extractor,
		observer:  observer,
	}
}

// Status walks the tiers. A tier that errors or whose page lacks the
// status area hands over to the next one. The returned error is
// ErrStatusAreaNotFound when the last attempted tier parsed a page without
// the area, otherwise that tier's error.
func (uc *TransitStatusUseCase) Status(ctx context.Context) (entities.TransitSnapshot, error) {
	if len(uc.tiers) == 0 {
		return entities.TransitSnapshot{}, fmt.Errorf("no page fetchers configured")
	}

	var lastErr error
	for _, tier := range uc.tiers {
		page, err := tier.Fetch(ctx, uc.url)
		if err != nil {
			slog.Warn("status fetch failed", "tier", tier.Name(), "error", err)
			uc.observe(tier.Name(), FetchError)
			lastErr = fmt.Errorf("%s fetch: %w", tier.Name(), err)
			continue
		}

		snapshot, err := uc.extractor.Extract(page)
		switch {
		case err == nil:
			uc.observe(tier.Name(), FetchOK)
			slog.Info("status page read", "tier", tier.Name(), "rows", len(snapshot.Rows))
			return snapshot, nil
		case errors.Is(err, ports.ErrStatusAreaNotFound):
			slog.Info("status area missing, trying next tier", "tier", tier.Name())
			uc.observe(tier.Name(), FetchNotFound)
			lastErr = err
		default:
			slog.Warn("status page parse failed", "tier", tier.Name(), "error", err)
			uc.observe(tier.Name(), FetchError)
			lastErr = fmt.Errorf("%s parse: %w", tier.Name(), err)
		}
	}
	return entities.TransitSnapshot{}, lastErr
}

// Report renders the current status for a user. It never fails: errors
// become canned messages.
func (uc *TransitStatusUseCase) Report(ctx context.Context) string {
	snapshot, err := uc.Status(ctx)
	if errors.Is(err, ports.ErrStatusAreaNotFound) {
		return MsgStatusNotFound
	}
	if err != nil {
		slog.Error("transit status unavailable", "error", err)
		return MsgStatusError
	}
	if len(snapshot.Rows) == 0 {
		return MsgNoCurrentInfo
	}
	return snapshot.Report()
}

func (uc *TransitStatusUseCase) observe(tier, result string) {
	if uc.observer != nil {
		uc.observer.ObserveFetch(tier, result)
	}
}
