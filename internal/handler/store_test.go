package handler

import (
	"testing"
	"time"

	"github.com/iliyamo/pharmacy-marketplace/internal/model"
)

func sp(s string) *string   { return &s }
func fp(f float64) *float64 { return &f }
func ip(i int64) *int64     { return &i }
func bp(b bool) *bool       { return &b }

func TestProductReqCreate(t *testing.T) {
	req := productReq{
		Name:         sp(" Amoxicillin 500mg "),
		Category:     sp("antibiotics"),
		Price:        fp(12.5),
		Stock:        ip(40),
		IsNearExpiry: bp(true),
		ExpiryDate:   sp("2025-06-30"),
		ImageURL:     sp("https://cdn.example.com/a.png"),
	}
	var p model.Product
	if fe := req.apply(&p, true); len(fe) != 0 {
		t.Fatalf("unexpected errors: %+v", fe)
	}
	want := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	if p.Name != "Amoxicillin 500mg" || p.Price != 12.5 || p.Stock != 40 || !p.ExpiryDate.Equal(want) {
		t.Fatalf("product = %+v", p)
	}
}

func TestProductReqCreateRequiresFields(t *testing.T) {
	var p model.Product
	got := fields(productReq{}.apply(&p, true))
	for _, f := range []string{"name", "category", "price", "stock"} {
		if !got[f] {
			t.Errorf("missing %s not reported", f)
		}
	}
}

func TestProductReqRejects(t *testing.T) {
	tests := []struct {
		name  string
		req   productReq
		field string
	}{
		{"negative price", productReq{Price: fp(-1)}, "price"},
		{"negative stock", productReq{Stock: ip(-3)}, "stock"},
		{"blank name", productReq{Name: sp("  ")}, "name"},
		{"near expiry without date", productReq{IsNearExpiry: bp(true)}, "expiryDate"},
		{"bad date", productReq{ExpiryDate: sp("30/06/2025")}, "expiryDate"},
		{"bad url", productReq{ImageURL: sp("not a url")}, "imageUrl"},
		{"ftp url", productReq{ImageURL: sp("ftp://host/x.png")}, "imageUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.Product{Name: "x", Category: "y"}
			if got := fields(tt.req.apply(&p, false)); !got[tt.field] {
				t.Fatalf("no error on %s", tt.field)
			}
		})
	}
}

func TestProductReqPartialUpdateKeepsFields(t *testing.T) {
	p := model.Product{Name: "Ibuprofen", Category: "pain", Price: 4, Stock: 9}
	if fe := (productReq{Stock: ip(0)}).apply(&p, false); len(fe) != 0 {
		t.Fatalf("unexpected errors: %+v", fe)
	}
	if p.Name != "Ibuprofen" || p.Price != 4 || p.Stock != 0 {
		t.Fatalf("product = %+v", p)
	}
}
