package search

import (
	"testing"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

func TestSubscriptionActive(t *testing.T) {
	now := baseNow
	past, future := now.Add(-time.Hour), now.Add(time.Hour)
	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{"zero value", Subscription{}, false},
		{"none", Subscription{Status: model.SubscriptionNone, ExpiresAt: &future}, false},
		{"basic without expiry", Subscription{Status: model.SubscriptionBasic}, true},
		{"premium in future", Subscription{Status: model.SubscriptionPremium, ExpiresAt: &future}, true},
		{"premium expired", Subscription{Status: model.SubscriptionPremium, ExpiresAt: &past}, false},
		{"expiring right now", Subscription{Status: model.SubscriptionBasic, ExpiresAt: &now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sub.Active(now); got != tt.want {
				t.Fatalf("Active = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaxRadiusFor(t *testing.T) {
	p := DefaultTierPolicy()
	yesterday := baseNow.Add(-24 * time.Hour)
	tests := []struct {
		sub  Subscription
		want float64
	}{
		{Subscription{Status: model.SubscriptionNone}, 10},
		{Subscription{Status: model.SubscriptionBasic}, 25},
		{Subscription{Status: model.SubscriptionPremium}, 50},
		{Subscription{Status: model.SubscriptionPremium, ExpiresAt: &yesterday}, 10},
		{Subscription{Status: "gold"}, 10},
	}
	for _, tt := range tests {
		if got := p.MaxRadiusFor(tt.sub, baseNow); got != tt.want {
			t.Errorf("MaxRadiusFor(%+v) = %v, want %v", tt.sub, got, tt.want)
		}
	}
}

func TestClampIsMinOfRequestAndCap(t *testing.T) {
	p := TierPolicy{NoneKm: 5, BasicKm: 15, PremiumKm: 40}
	subs := []Subscription{
		{Status: model.SubscriptionNone},
		{Status: model.SubscriptionBasic},
		{Status: model.SubscriptionPremium},
	}
	for _, sub := range subs {
		capKm := p.MaxRadiusFor(sub, baseNow)
		prev := 0.0
		for req := 0.5; req <= 200; req += 0.5 {
			info := p.Clamp(req, 10, sub, baseNow)
			want := req
			if req > capKm {
				want = capKm
			}
			if info.EffectiveKm != want {
				t.Fatalf("%s: Clamp(%v).EffectiveKm = %v, want %v", sub.Status, req, info.EffectiveKm, want)
			}
			if info.EffectiveKm < prev {
				t.Fatalf("%s: effective radius decreased from %v to %v", sub.Status, prev, info.EffectiveKm)
			}
			if info.Clamped != (req > capKm) || info.MaxKm != capKm || info.RequestedKm != req {
				t.Fatalf("%s: Clamp(%v) = %+v", sub.Status, req, info)
			}
			prev = info.EffectiveKm
		}
	}
}

func TestClampDefaultsMissingRadius(t *testing.T) {
	p := DefaultTierPolicy()
	info := p.Clamp(0, 30, Subscription{Status: model.SubscriptionBasic}, baseNow)
	want := RadiusInfo{RequestedKm: 30, EffectiveKm: 25, MaxKm: 25, Clamped: true}
	if info != want {
		t.Fatalf("Clamp(0) = %+v, want %+v", info, want)
	}
}

func TestSubscriptionOf(t *testing.T) {
	if got := SubscriptionOf(nil); got.Active(baseNow) {
		t.Fatalf("nil profile gave active subscription %+v", got)
	}
	exp := baseNow.Add(time.Hour)
	got := SubscriptionOf(&model.PharmacyOwnerProfile{SubscriptionStatus: model.SubscriptionBasic, SubscriptionExpiresAt: &exp})
	if got.Status != model.SubscriptionBasic || got.ExpiresAt != &exp {
		t.Fatalf("SubscriptionOf = %+v", got)
	}
}
