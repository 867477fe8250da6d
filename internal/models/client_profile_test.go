package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carrier-recommendation-engine/internal/models"
)

func TestClientProfile_Normalize(t *testing.T) {
	p := models.ClientProfile{
		State:         " tx ",
		Gender:        "f",
		TobaccoStatus: "Current",
		MedicalConditions: map[string]bool{
			"Type-2 Diabetes": true,
			"Heart Disease":   false,
		},
		Medications: []string{" metformin ", "", "Lisinopril"},
	}
	p.Normalize()

	assert.Equal(t, "TX", p.State)
	assert.Equal(t, "F", p.Gender)
	assert.True(t, p.Smoker, "tobacco_status should fold into the smoker flag")

	assert.True(t, p.MedicalConditions["type_2_diabetes"])
	v, present := p.MedicalConditions["heart_disease"]
	assert.True(t, present)
	assert.False(t, v)

	assert.Equal(t, []string{"metformin", "Lisinopril"}, p.Medications)
	assert.True(t, p.TakesMedication("METFORMIN"))
	assert.False(t, p.TakesMedication("insulin"))
}

func TestClientProfile_ConditionHelpers(t *testing.T) {
	p := models.ClientProfile{
		MedicalConditions: map[string]bool{
			"diabetes":      true,
			"copd":          true,
			"heart_disease": false,
		},
	}

	assert.True(t, p.HasConditions())
	assert.Equal(t, []string{"copd", "diabetes"}, p.ConditionNames())
	assert.True(t, p.ConditionValue("Diabetes"))
	assert.False(t, p.ConditionValue("heart disease"))

	clean := models.ClientProfile{MedicalConditions: map[string]bool{"asthma": false}}
	assert.False(t, clean.HasConditions())
}

func TestClientProfile_BMI(t *testing.T) {
	// 5'10", 180 lbs is roughly BMI 25.8
	p := models.ClientProfile{HeightFt: 5, HeightIn: 10, WeightLbs: 180}
	bmi, ok := p.BMI()
	require.True(t, ok)
	assert.InDelta(t, 25.8, bmi, 0.2)

	missing := models.ClientProfile{WeightLbs: 180}
	_, ok = missing.BMI()
	assert.False(t, ok)
}

func TestValidateProfile(t *testing.T) {
	assert.NoError(t, models.ValidateProfile(&models.ClientProfile{Age: 45, DesiredCoverage: 100000}))
	assert.ErrorIs(t, models.ValidateProfile(&models.ClientProfile{Age: 130}), models.ErrInvalidAge)
	assert.ErrorIs(t, models.ValidateProfile(&models.ClientProfile{Age: -1}), models.ErrInvalidAge)
	assert.ErrorIs(t, models.ValidateProfile(&models.ClientProfile{Age: 40, DesiredCoverage: -1}), models.ErrNegativeCoverage)
}
