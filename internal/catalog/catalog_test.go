package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"nietladen/internal/apperr"
	"nietladen/internal/models"
	"nietladen/internal/store/memstore"
)

var manager = models.Caller{UserID: 1, Roles: []models.Role{models.RoleCatalogManager}}

func newTestService(t *testing.T) (*Service, *memstore.MemoryStore) {
	t.Helper()
	st := memstore.New()
	return New(st, zaptest.NewLogger(t)), st
}

func TestCreateBrand(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	b, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "  Tesla  "})
	require.NoError(t, err)
	assert.Equal(t, "Tesla", b.Name)
	assert.Equal(t, "tesla", b.Slug)
	assert.Equal(t, models.StatusApproved, b.Status)

	_, err = svc.CreateBrand(ctx, manager, BrandInput{Name: "TESLA"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.CreateBrand(ctx, manager, BrandInput{Name: ""})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.CreateBrand(ctx, manager, BrandInput{Name: "***"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	bad := "javascript:alert(1)"
	_, err = svc.CreateBrand(ctx, manager, BrandInput{Name: "Kia", LogoURL: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateBrand_ExplicitSlugIsNormalised(t *testing.T) {
	svc, _ := newTestService(t)
	b, err := svc.CreateBrand(context.Background(), manager, BrandInput{Name: "Volkswagen", Slug: "VW Group"})
	require.NoError(t, err)
	assert.Equal(t, "vw-group", b.Slug)
}

func TestUpdateBrand(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	b, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "Tesla"})
	require.NoError(t, err)
	_, err = svc.CreateBrand(ctx, manager, BrandInput{Name: "Kia"})
	require.NoError(t, err)

	updated, err := svc.UpdateBrand(ctx, manager, b.ID, BrandInput{Name: "Tesla Motors"})
	require.NoError(t, err)
	assert.Equal(t, "tesla-motors", updated.Slug)

	_, err = svc.UpdateBrand(ctx, manager, 999, BrandInput{Name: "Nope"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.UpdateBrand(ctx, manager, b.ID, BrandInput{Name: "Kia"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestApproveBrand(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	pending := &models.Brand{Name: "BYD", Slug: "byd", Status: models.StatusPending}
	require.NoError(t, st.CreateBrand(ctx, pending))

	b, err := svc.ApproveBrand(ctx, manager, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, b.Status)

	b, err = svc.ApproveBrand(ctx, manager, pending.ID)
	require.NoError(t, err, "approving twice is idempotent")
	assert.Equal(t, models.StatusApproved, b.Status)

	_, err = svc.ApproveBrand(ctx, manager, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteBrand_AbsentIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.DeleteBrand(context.Background(), manager, 12345))
}

func TestDeleteBrand_CascadesButKeepsGuides(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	b, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "Tesla"})
	require.NoError(t, err)
	m3, err := svc.CreateModel(ctx, manager, ModelInput{BrandID: b.ID, Name: "Model 3"})
	require.NoError(t, err)
	my, err := svc.CreateModel(ctx, manager, ModelInput{BrandID: b.ID, Name: "Model Y"})
	require.NoError(t, err)

	g := &models.Guide{SubmittedByName: "Jan", Status: models.StatusApproved}
	require.NoError(t, st.CreateGuide(ctx, g))
	require.NoError(t, st.LinkGuideModel(ctx, g.ID, m3.ID))

	require.NoError(t, svc.DeleteBrand(ctx, manager, b.ID))

	for _, id := range []int64{m3.ID, my.ID} {
		_, err := svc.GetModel(ctx, manager, id)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	}
	linked, err := st.ListGuideModels(ctx, g.ID)
	require.NoError(t, err)
	assert.Empty(t, linked)

	survivor, err := st.GetGuideByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, survivor.ID)
}

func TestCreateModel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	b, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "Hyundai"})
	require.NoError(t, err)

	years := "2021-"
	m, err := svc.CreateModel(ctx, manager, ModelInput{BrandID: b.ID, Name: "IONIQ 5", YearRange: &years})
	require.NoError(t, err)
	assert.Equal(t, "ioniq-5", m.Slug)
	assert.Equal(t, models.StatusApproved, m.Status)
	require.NotNil(t, m.YearRange)
	assert.Equal(t, "2021-", *m.YearRange)

	tests := []struct {
		name string
		in   ModelInput
		kind apperr.Kind
	}{
		{"empty name", ModelInput{BrandID: b.ID, Name: " "}, apperr.KindValidation},
		{"unknown brand", ModelInput{BrandID: 999, Name: "Kona"}, apperr.KindNotFound},
		{"duplicate slug", ModelInput{BrandID: b.ID, Name: "Ioniq 5"}, apperr.KindConflict},
		{"unknown reference", ModelInput{BrandID: b.ID, Name: "Ioniq 6", ReferenceModelID: ptr(int64(999))}, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateModel(ctx, manager, tt.in)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	ref, err := svc.CreateModel(ctx, manager, ModelInput{BrandID: b.ID, Name: "Ioniq 6", ReferenceModelID: &m.ID})
	require.NoError(t, err)
	assert.Equal(t, m.ID, *ref.ReferenceModelID)
}

func TestUpdateModel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	b, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "Kia"})
	require.NoError(t, err)
	m, err := svc.CreateModel(ctx, manager, ModelInput{BrandID: b.ID, Name: "e-Niro"})
	require.NoError(t, err)

	updated, err := svc.UpdateModel(ctx, manager, m.ID, ModelInput{Name: "Niro EV"})
	require.NoError(t, err)
	assert.Equal(t, "niro-ev", updated.Slug)
	assert.Equal(t, b.ID, updated.BrandID)

	_, err = svc.UpdateModel(ctx, manager, m.ID, ModelInput{Name: "Niro EV", ReferenceModelID: &m.ID})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateModel(ctx, manager, 999, ModelInput{Name: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.NoError(t, svc.DeleteModel(ctx, manager, m.ID))
	assert.NoError(t, svc.DeleteModel(ctx, manager, m.ID), "second delete is a no-op")
}

func TestApproveModel(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	b := &models.Brand{Name: "BYD", Slug: "byd", Status: models.StatusPending}
	require.NoError(t, st.CreateBrand(ctx, b))
	m := &models.VehicleModel{BrandID: b.ID, Name: "Atto 3", Slug: "atto-3", Status: models.StatusPending}
	require.NoError(t, st.CreateModel(ctx, m))

	approved, err := svc.ApproveModel(ctx, manager, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, models.StatusPending, approved.BrandStatus, "direct model approval leaves the brand alone")

	_, err = svc.ApproveModel(ctx, manager, 999)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPublicReads(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	tesla, err := svc.CreateBrand(ctx, manager, BrandInput{Name: "Tesla"})
	require.NoError(t, err)
	_, err = svc.CreateModel(ctx, manager, ModelInput{BrandID: tesla.ID, Name: "Model 3"})
	require.NoError(t, err)
	hidden := &models.VehicleModel{BrandID: tesla.ID, Name: "Cybertruck", Slug: "cybertruck", Status: models.StatusPending}
	require.NoError(t, st.CreateModel(ctx, hidden))
	pendingBrand := &models.Brand{Name: "BYD", Slug: "byd", Status: models.StatusPending}
	require.NoError(t, st.CreateBrand(ctx, pendingBrand))

	brands, err := svc.ListBrands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "tesla", brands[0].Slug)

	all, err := svc.ListAllBrands(ctx, manager)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	list, err := svc.ListModelsForBrandSlug(ctx, "tesla")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "model-3", list[0].Slug)

	_, err = svc.ListModelsForBrandSlug(ctx, "byd")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.PublicModel(ctx, "tesla", "cybertruck")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	adminList, err := svc.ListModels(ctx, manager, tesla.ID)
	require.NoError(t, err)
	assert.Len(t, adminList, 2)
}

func TestGatedOperations_NoMutationWithoutRole(t *testing.T) {
	ctx := context.Background()
	callers := map[string]models.Caller{
		"anonymous": {},
		"moderator": {UserID: 2, Roles: []models.Role{models.RoleModerator}},
	}

	for name, caller := range callers {
		t.Run(name, func(t *testing.T) {
			svc, st := newTestService(t)
			ops := map[string]func() error{
				"CreateBrand":  func() error { _, err := svc.CreateBrand(ctx, caller, BrandInput{Name: "Tesla"}); return err },
				"UpdateBrand":  func() error { _, err := svc.UpdateBrand(ctx, caller, 1, BrandInput{Name: "Tesla"}); return err },
				"DeleteBrand":  func() error { return svc.DeleteBrand(ctx, caller, 1) },
				"ApproveBrand": func() error { _, err := svc.ApproveBrand(ctx, caller, 1); return err },
				"CreateModel":  func() error { _, err := svc.CreateModel(ctx, caller, ModelInput{BrandID: 1, Name: "X"}); return err },
				"UpdateModel":  func() error { _, err := svc.UpdateModel(ctx, caller, 1, ModelInput{Name: "X"}); return err },
				"DeleteModel":  func() error { return svc.DeleteModel(ctx, caller, 1) },
				"ApproveModel": func() error { _, err := svc.ApproveModel(ctx, caller, 1); return err },
				"Import":       func() error { _, err := svc.Import(ctx, caller, "Tesla\tModel 3"); return err },
			}
			for op, fn := range ops {
				err := fn()
				assert.Equal(t, apperr.KindAuth, apperr.KindOf(err), op)
			}
			assert.Zero(t, st.Mutations())
		})
	}
}

func ptr[T any](v T) *T { return &v }
