package sqlx

import (
	"context"
	"testing"

	"github.com/kroma-labs/marginalia-go/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantAssert func(*testing.T, *config)
	}{
		{
			name: "given no options, then uses global providers",
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, otel.GetTracerProvider(), cfg.TracerProvider)
				assert.Equal(t, otel.GetMeterProvider(), cfg.MeterProvider)
				assert.NotNil(t, cfg.Metrics)
				assert.Empty(t, cfg.Commenter.Comment(context.Background()))
			},
		},
		{
			name: "given comment options, then builds the commenter from them",
			opts: []Option{
				WithApplication("blog"),
				WithCommentOptions(comment.WithDBDriver("sqlite")),
			},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, "/*app=blog,db_driver=sqlite*/", cfg.Commenter.Comment(context.Background()))
			},
		},
		{
			name: "given WithDisableComments, then builds no commenter",
			opts: []Option{WithApplication("blog"), WithDisableComments()},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Nil(t, cfg.Commenter)
				assert.Equal(t, "SELECT 1", cfg.annotate(context.Background(), "SELECT 1"))
				assert.Equal(t, "SELECT 1", cfg.annotateNamed(context.Background(), "SELECT 1"))
			},
		},
		{
			name: "given database attributes, then applies all",
			opts: []Option{
				WithDBSystem("sqlite"),
				WithDBName("blog"),
				WithInstanceName("primary"),
				WithQuerySanitizer(DefaultQuerySanitizer),
			},
			wantAssert: func(t *testing.T, cfg *config) {
				assert.Equal(t, map[string]string{
					"db.system":   "sqlite",
					"db.name":     "blog",
					"db.instance": "primary",
				}, attrMap(cfg.baseAttributes()))
				assert.NotNil(t, cfg.QuerySanitizer)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(tt.opts...)
			require.NotNil(t, cfg)
			tt.wantAssert(t, cfg)
		})
	}
}
