package metrics

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Provider 进程内的 MeterProvider，采集由 ManualReader 按需触发
type Provider struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
}

// NewProvider 创建 MeterProvider
func NewProvider() *Provider {
	reader := sdkmetric.NewManualReader()
	return &Provider{
		reader: reader,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// MeterProvider 用于 otel.SetMeterProvider
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.mp
}

// Meter 本包使用的 Meter
func (p *Provider) Meter() metric.Meter {
	return p.mp.Meter(instrumentationName)
}

// Point 计数器的一个数据点
type Point struct {
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      int64             `json:"value"`
}

// Collect 读取所有整型计数器的累计值，按名称排序
func (p *Provider) Collect(ctx context.Context) ([]Point, error) {
	var rm metricdata.ResourceMetrics
	if err := p.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}

	points := make([]Point, 0)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				pt := Point{Name: m.Name, Value: dp.Value}
				if dp.Attributes.Len() > 0 {
					pt.Attributes = make(map[string]string, dp.Attributes.Len())
					for _, kv := range dp.Attributes.ToSlice() {
						pt.Attributes[string(kv.Key)] = kv.Value.Emit()
					}
				}
				points = append(points, pt)
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return attrKey(points[i]) < attrKey(points[j])
	})
	return points, nil
}

func attrKey(p Point) string {
	keys := make([]string, 0, len(p.Attributes))
	for k, v := range p.Attributes {
		keys = append(keys, k+"="+v)
	}
	sort.Strings(keys)
	out := ""
	for _, k := range keys {
		out += k + ","
	}
	return out
}

// Shutdown 关闭 MeterProvider
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}
