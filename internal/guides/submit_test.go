package guides

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nietladen/internal/apperr"
	"nietladen/internal/models"
)

func TestSubmit_ExistingModels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tesla := f.brand(t, "Tesla", "tesla", models.StatusApproved)
	m3 := f.model(t, tesla, "Model 3", "model-3", models.StatusApproved)

	g, err := f.svc.Submit(ctx, SubmitInput{
		SubmitterName:  "Jan",
		SubmitterEmail: str("jan@example.nl"),
		ModelIDs:       []int64{m3.ID, m3.ID},
		Steps: []StepInput{
			{StepNumber: 2, Description: "Set the start time to 23:00", ImageURL: str("https://img.example.nl/2.png")},
			{StepNumber: 1, Description: "Open Charging"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, g.Status)
	assert.Nil(t, g.ApprovedByUserID)

	steps, err := f.store.ListSteps(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 1, steps[0].StepNumber)
	assert.Equal(t, 2, steps[1].StepNumber)

	linked, err := f.store.ListGuideModels(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, "submission", sent.kind)
	assert.Equal(t, []string{"mod@example.nl"}, sent.to)
	assert.Equal(t, []string{"Tesla Model 3"}, sent.modelNames)
	assert.Equal(t, g.ID, sent.guideID)
}

func TestSubmit_NewBrandCreatedOnceThenReused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	in := SubmitInput{
		SubmitterName: "Piet",
		Steps:         oneStep(),
		NewBrand:      &NewBrandInput{Name: "BYD"},
		NewModel:      &NewModelInput{Name: "Atto 3"},
	}
	first, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)

	brands, err := f.store.ListBrands(ctx, true)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "byd", brands[0].Slug)
	assert.Equal(t, models.StatusPending, brands[0].Status)

	second, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)

	brands, err = f.store.ListBrands(ctx, true)
	require.NoError(t, err)
	assert.Len(t, brands, 1, "brand count unchanged")

	list, err := f.store.ListModelsByBrand(ctx, brands[0].ID, true)
	require.NoError(t, err)
	assert.Len(t, list, 1, "model reused as well")

	a, err := f.store.ListGuideModels(ctx, first.ID)
	require.NoError(t, err)
	b, err := f.store.ListGuideModels(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.Equal(t, models.StatusPending, a[0].Status)
}

func TestSubmit_NewModelUnderBrandOfFirstModel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	kia := f.brand(t, "Kia", "kia", models.StatusApproved)
	ev6 := f.model(t, kia, "EV6", "ev6", models.StatusApproved)

	g, err := f.svc.Submit(ctx, SubmitInput{
		SubmitterName: "Anna",
		ModelIDs:      []int64{ev6.ID},
		Steps:         oneStep(),
		NewModel:      &NewModelInput{Name: "EV9", YearRange: str("2023-")},
	})
	require.NoError(t, err)

	linked, err := f.store.ListGuideModels(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, linked, 2)
	for _, m := range linked {
		assert.Equal(t, kia.ID, m.BrandID)
	}

	all, err := f.store.ListModelsByBrand(ctx, kia.ID, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tesla := f.brand(t, "Tesla", "tesla", models.StatusApproved)
	m3 := f.model(t, tesla, "Model 3", "model-3", models.StatusApproved)

	tests := []struct {
		name string
		in   SubmitInput
	}{
		{"missing name", SubmitInput{ModelIDs: []int64{m3.ID}, Steps: oneStep()}},
		{"no steps", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}}},
		{"blank description", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: []StepInput{{StepNumber: 1, Description: " "}}}},
		{"description too long", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: []StepInput{{StepNumber: 1, Description: strings.Repeat("x", 2001)}}}},
		{"negative step number", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: []StepInput{{StepNumber: -1, Description: "x"}}}},
		{"duplicate step numbers", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: []StepInput{{StepNumber: 1, Description: "a"}, {StepNumber: 1, Description: "b"}}}},
		{"bad image url", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: []StepInput{{StepNumber: 1, Description: "a", ImageURL: str("javascript:alert(1)")}}}},
		{"bad email", SubmitInput{SubmitterName: "Jan", SubmitterEmail: str("nope"), ModelIDs: []int64{m3.ID}, Steps: oneStep()}},
		{"no models", SubmitInput{SubmitterName: "Jan", Steps: oneStep()}},
		{"new model without brand", SubmitInput{SubmitterName: "Jan", Steps: oneStep(), NewModel: &NewModelInput{Name: "X"}}},
		{"unknown model", SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{9999}, Steps: oneStep()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	guides, err := f.store.ListGuides(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, guides)
	assert.Empty(t, f.notifier.sent)
}

func TestSubmit_RollsBackProposedBrandOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Submit(ctx, SubmitInput{
		SubmitterName: "Jan",
		ModelIDs:      []int64{4242},
		Steps:         oneStep(),
		NewBrand:      &NewBrandInput{Name: "Lucid"},
	})
	require.Error(t, err)

	brands, err := f.store.ListBrands(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, brands)
}

func TestSubmit_Recaptcha(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		verifier fakeVerifier
		token    string
		wantErr  bool
		calls    int
	}{
		{"no token skips check", fakeVerifier{enabled: true, ok: false}, "", false, 0},
		{"no secret skips check", fakeVerifier{enabled: false, ok: false}, "tok", false, 0},
		{"passes", fakeVerifier{enabled: true, ok: true}, "tok", false, 1},
		{"low score", fakeVerifier{enabled: true, ok: false}, "tok", true, 1},
		{"verifier error fails closed", fakeVerifier{enabled: true, ok: true, err: errors.New("timeout")}, "tok", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			*f.verifier = tt.verifier
			tesla := f.brand(t, "Tesla", "tesla", models.StatusApproved)
			m3 := f.model(t, tesla, "Model 3", "model-3", models.StatusApproved)
			before := f.store.Mutations()

			_, err := f.svc.Submit(ctx, SubmitInput{
				SubmitterName:  "Jan",
				ModelIDs:       []int64{m3.ID},
				Steps:          oneStep(),
				RecaptchaToken: tt.token,
			})
			if tt.wantErr {
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				assert.Equal(t, before, f.store.Mutations(), "nothing written")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.calls, f.verifier.calls)
		})
	}
}

func TestSubmit_NotificationFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	tesla := f.brand(t, "Tesla", "tesla", models.StatusApproved)
	m3 := f.model(t, tesla, "Model 3", "model-3", models.StatusApproved)

	g, err := f.svc.Submit(ctx, SubmitInput{SubmitterName: "Jan", ModelIDs: []int64{m3.ID}, Steps: oneStep()})
	require.NoError(t, err)
	assert.NotZero(t, g.ID)
	assert.Len(t, f.notifier.sent, 1)
}

func TestSubmit_DefaultsMissingStepNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tesla := f.brand(t, "Tesla", "tesla", models.StatusApproved)
	m3 := f.model(t, tesla, "Model 3", "model-3", models.StatusApproved)

	g, err := f.svc.Submit(ctx, SubmitInput{
		SubmitterName: "Jan",
		ModelIDs:      []int64{m3.ID},
		Steps:         []StepInput{{Description: "first"}, {Description: "second"}},
	})
	require.NoError(t, err)

	steps, err := f.store.ListSteps(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "first", steps[0].Description)
	assert.Equal(t, 2, steps[1].StepNumber)
}
