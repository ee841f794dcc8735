package reporter

import (
	"context"
	"fmt"

	"github.com/go-jose/go-jose/v4/json"
	"go.uber.org/zap"
)

// Publisher is the Redis surface the digest needs. *redis.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) (int64, error)
	Append(ctx context.Context, stream string, message []byte) (string, error)
	Close() error
}

// Run builds one digest, logs its summary and hands it to the Publisher.
// Publishing is best-effort; only a failure to build the digest is returned.
func (a *App) Run(ctx context.Context) error {
	d, err := a.Dashboard.Digest(ctx)
	if err != nil {
		return err
	}

	underperformers, gaps := d.Counts()
	a.Logger.Info("[reporter] digest built",
		zap.Time("generatedAt", d.GeneratedAt),
		zap.Int("sms", len(d.SMs)),
		zap.Int("underperformers", underperformers),
		zap.Int("gaps", gaps))
	for _, sm := range d.SMs {
		if len(sm.Underperformers) == 0 && len(sm.Gaps) == 0 {
			continue
		}
		a.Logger.Debug("[reporter] SM issues",
			zap.String("smId", sm.SMID),
			zap.String("smName", sm.SMName),
			zap.Int("underperformers", len(sm.Underperformers)),
			zap.Int("gaps", len(sm.Gaps)))
	}

	if a.Publisher == nil {
		return nil
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}

	if n, err := a.Publisher.Publish(ctx, a.Channel, payload); err != nil {
		a.Logger.Warn("[reporter] publish failed", zap.String("channel", a.Channel), zap.Error(err))
	} else {
		a.Logger.Debug("[reporter] digest published", zap.String("channel", a.Channel), zap.Int64("receivers", n))
	}

	if a.Stream != "" {
		if id, err := a.Publisher.Append(ctx, a.Stream, payload); err != nil {
			a.Logger.Warn("[reporter] stream append failed", zap.String("stream", a.Stream), zap.Error(err))
		} else {
			a.Logger.Debug("[reporter] digest stored", zap.String("stream", a.Stream), zap.String("id", id))
		}
	}
	return nil
}
