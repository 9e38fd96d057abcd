package db

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/raster.viewer/internal/style"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestStylePreset_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetStylePreset("ndvi")
	if err != nil {
		t.Fatalf("GetStylePreset failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no preset, got %+v", got)
	}

	want := style.Params{
		Range:         style.Range{Min: -1, Med: 0.2, Max: 1},
		ColorLow:      "f7fcb9",
		ColorMid:      "#41ab5d",
		ColorHigh:     "#005a32",
		Opacity:       0.6,
		NoDataValue:   floatPtr(-9999),
		NoDataOpacity: floatPtr(0),
	}
	if err := db.SaveStylePreset("ndvi", want); err != nil {
		t.Fatalf("SaveStylePreset failed: %v", err)
	}

	got, err = db.GetStylePreset("ndvi")
	if err != nil {
		t.Fatalf("GetStylePreset failed: %v", err)
	}
	if diff := cmp.Diff(want.Normalized(), *got); diff != "" {
		t.Errorf("preset mismatch (-want +got):\n%s", diff)
	}
}

func TestStylePreset_Upsert(t *testing.T) {
	db := newTestDB(t)

	p := style.DefaultParams(style.Range{Min: 0, Med: 5, Max: 10}, 0.8)
	if err := db.SaveStylePreset("dem", p); err != nil {
		t.Fatalf("SaveStylePreset failed: %v", err)
	}
	p.Max = 20
	p.NoDataColor = "000000"
	if err := db.SaveStylePreset("dem", p); err != nil {
		t.Fatalf("second SaveStylePreset failed: %v", err)
	}

	rec, err := db.GetStylePresetRecord("dem")
	if err != nil {
		t.Fatalf("GetStylePresetRecord failed: %v", err)
	}
	if rec.Params.Max != 20 {
		t.Errorf("Max = %v, want 20", rec.Params.Max)
	}
	if rec.Params.NoDataColor != "#000000" {
		t.Errorf("NoDataColor = %q, want #000000", rec.Params.NoDataColor)
	}
	if rec.UpdatedAt < rec.CreatedAt {
		t.Errorf("updated_at %v before created_at %v", rec.UpdatedAt, rec.CreatedAt)
	}

	presets, err := db.ListStylePresets()
	if err != nil {
		t.Fatalf("ListStylePresets failed: %v", err)
	}
	if len(presets) != 1 {
		t.Errorf("expected 1 preset after upsert, got %d", len(presets))
	}
}

func TestStylePreset_Invalid(t *testing.T) {
	db := newTestDB(t)

	if err := db.SaveStylePreset("", style.DefaultParams(style.Range{Max: 1}, 1)); err == nil {
		t.Error("expected error for empty layer id")
	}
	bad := style.DefaultParams(style.Range{Max: 1}, 1)
	bad.ColorLow = "not-a-colour"
	if err := db.SaveStylePreset("a", bad); err == nil {
		t.Error("expected error for invalid colour")
	}
}

func TestStylePreset_ListAndDelete(t *testing.T) {
	db := newTestDB(t)

	for _, id := range []string{"b", "a", "c"} {
		if err := db.SaveStylePreset(id, style.DefaultParams(style.Range{Max: 1}, 1)); err != nil {
			t.Fatalf("SaveStylePreset(%s) failed: %v", id, err)
		}
	}
	if err := db.DeleteStylePreset("b"); err != nil {
		t.Fatalf("DeleteStylePreset failed: %v", err)
	}
	if err := db.DeleteStylePreset("missing"); err != nil {
		t.Errorf("deleting a missing preset should not fail: %v", err)
	}

	presets, err := db.ListStylePresets()
	if err != nil {
		t.Fatalf("ListStylePresets failed: %v", err)
	}
	var ids []string
	for _, p := range presets {
		ids = append(ids, p.LayerID)
	}
	if diff := cmp.Diff([]string{"a", "c"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlePresets(t *testing.T) {
	db := newTestDB(t)
	if err := db.SaveStylePreset("elev", style.DefaultParams(style.Range{Min: 0, Med: 5, Max: 10}, 0.8)); err != nil {
		t.Fatalf("SaveStylePreset failed: %v", err)
	}

	serve := func(method, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		db.handlePresets(w, httptest.NewRequest(method, target, nil))
		return w
	}

	w := serve(http.MethodGet, "/debug/presets")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list []StylePreset
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].LayerID != "elev" {
		t.Errorf("list = %+v", list)
	}

	w = serve(http.MethodGet, "/debug/presets?layer=elev")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var one StylePreset
	if err := json.Unmarshal(w.Body.Bytes(), &one); err != nil {
		t.Fatalf("decode preset: %v", err)
	}
	if one.LayerID != "elev" || one.Params.Max != 10 {
		t.Errorf("preset = %+v", one)
	}

	if w = serve(http.MethodDelete, "/debug/presets"); w.Code != http.StatusBadRequest {
		t.Errorf("delete without layer status = %d, want 400", w.Code)
	}
	if w = serve(http.MethodDelete, "/debug/presets?layer=elev"); w.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", w.Code)
	}
	if w = serve(http.MethodGet, "/debug/presets?layer=elev"); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
	if w = serve(http.MethodPost, "/debug/presets"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("post status = %d, want 405", w.Code)
	}
}
