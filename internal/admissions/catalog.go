// Package admissions holds the column catalog of the critical care admissions
// dataset and the ordered chain that prepares it for classification.
//
// The chain order matters: schema names are normalized before anything looks
// a column up, the referral ECOG score is completed before the admission
// score reads it, and encoders run before the numeric groups so that a
// failure on a categorical domain surfaces early.
package admissions

import (
	"clinprep/internal/transformer"
	"clinprep/internal/transformer/builtin"
)

// Column names after schema normalization.
const (
	Sex                = "Sex"
	BMI                = "BMI"
	ECOGReferral       = "ECOG PS at referral to Oncology"
	ECOGAdmission      = "ECOG PS on admission to hospital"
	Diagnosis          = "Diagnosis categories"
	Treatment          = "Most recent oncological treatment"
	AnticancerTherapy  = "Anticancer Therapy with 6 weeks"
	AdmissionReason    = "Reason for admission to hospital"
	SurgicalOrMedical  = "Surgical or medical"
	NEWS2              = "Final NEWS 2 score Before Critical Care admission"
	Ventilation        = "Mechanical ventilation (incl CPAP)"
	DaysInCriticalCare = "Number of Days in Critical Care"
	UrineOutput        = "Urine output ml per day"
)

// Column groups imputed together.
var (
	Temperatures = []string{"Highest Temp in preceding 8 hours", "Lowest Temp in preceding 8 hours"}

	PreAdmissionVitals = []string{"MAP", "Final HR before Critical Care admission"}

	YesNoFields = []string{
		"Cardiac arrest_1",
		"Cardiac arrest_2",
		"Direct admission from theatre?",
		"Features of sepsis?",
		"Haemodialysis /CRRT",
		"AKI y/n",
		"Acute renal failure_2",
		"Survival 6 months post crit care",
	}

	Observations = []string{
		"First GCS on Critical Care admission",
		"Final RR before Critical Care admission",
		"Lowest temp",
		"Highest HR",
		"Lowest HR",
		"Highest RR",
		"Lowest RR",
		"Lowest GCS",
	}

	Bloods = []string{
		"Hb_1", "Haematocrit_1", "WBC_1", "Neutrophils_1", "Platelets_1", "Na_1", "K_1", "Urea_1",
		"Creatinine_umolperL_1", "Bilirubin_1", "Albumin_1", "Hb_2", "Haematocrit_2", "WBC_2", "Platelets_2",
		"Na_2", "K_2", "Urea_2", "Creatinine_mgperdL_2", "Creatinine_umolperL_2", "Bilirubin_2",
		"First pH on Admission to Critical Care",
		"FiO2_1", "PaCo2 kPa_1", "PaO2 kPa_1", "Aa gradient_1", "PaO2 mmHg_1", "PaO2_FiO2_1", "BiCarb_1", "Lactate_1",
		"FiO2_2", "pH_1",
		"FiO2_3", "PaCo2 kPa_2", "PaO2 kPa_2", "Aa gradient_2", "PaO2 mmHg_2", "PaO2_FiO2_2", "Worst PaO2:FiO2 ratio",
		"BiCarb_2", "Lactate_2",
		"FiO2_4",
	}
)

// Encoders of the four multi-valued categorical fields. Diagnosis and
// admission reason keep unknowns as an all-zero row; treatment and
// ventilation record a missing entry as no treatment / no support.
var (
	DiagnosisEncoder = builtin.OneHot{
		Column: Diagnosis,
		Prefix: "Diagnosis",
		Categories: []string{
			"Breast", "Gastrointestinal", "Gynaecological", "Haematological",
			"Head and neck", "Lung", "Skin", "Urological", "Other",
		},
		Missing: builtin.MissingAbsent,
		Other:   "Other",
	}

	TreatmentEncoder = builtin.OneHot{
		Column: Treatment,
		Prefix: "Treatment",
		Categories: []string{
			"Chemotherapy", "Immunotherapy", "Targeted therapy", "Hormone therapy",
			"Radiotherapy", "Surgery", "None",
		},
		Missing: builtin.MissingDefault,
		Default: "None",
	}

	AdmissionReasonEncoder = builtin.OneHot{
		Column: AdmissionReason,
		Prefix: "Admission reason",
		Categories: []string{
			"Sepsis", "Respiratory failure", "Cardiac", "Renal", "Neurological",
			"Gastrointestinal", "Post-operative", "Other",
		},
		Missing: builtin.MissingAbsent,
		Other:   "Other",
	}

	VentilationEncoder = builtin.OneHot{
		Column:     Ventilation,
		Prefix:     "Ventilation",
		Categories: []string{"None", "CPAP", "Non-invasive", "Invasive"},
		Missing:    builtin.MissingDefault,
		Default:    "None",
	}
)

// SexMapping codes the sex field; SurgicalMapping the cause of admission.
var (
	SexMapping      = map[string]float64{"male": 1, "m": 1, "female": 0, "f": 0}
	SurgicalMapping = map[string]float64{"surgical": 1, "surgery": 1, "medical": 0}
)

// Columns lists every catalog column the input must carry, in chain order.
func Columns() []string {
	cols := []string{
		Sex, BMI, ECOGReferral, ECOGAdmission, Diagnosis, Treatment,
		AnticancerTherapy, AdmissionReason, SurgicalOrMedical, NEWS2,
	}
	cols = append(cols, Temperatures...)
	cols = append(cols, PreAdmissionVitals...)
	cols = append(cols, YesNoFields...)
	cols = append(cols, Observations...)
	cols = append(cols, UrineOutput, Ventilation)
	cols = append(cols, Bloods...)
	return append(cols, DaysInCriticalCare)
}

// encoded maps each one-hot source column to its indicator columns.
func encoded() map[string][]string {
	out := map[string][]string{}
	for _, e := range []builtin.OneHot{DiagnosisEncoder, TreatmentEncoder, AdmissionReasonEncoder, VentilationEncoder} {
		out[e.Column] = e.Indicators()
	}
	return out
}

// Steps returns the admissions preparation chain.
func Steps(workers int) transformer.Chain {
	mean := func(name string, cols ...string) transformer.Step {
		return transformer.Named(name, builtin.Impute{Columns: cols, Strategy: builtin.Mean, Workers: workers})
	}
	mode := func(name string, cols ...string) transformer.Step {
		return transformer.Named(name, builtin.Impute{Columns: cols, Strategy: builtin.Mode, Workers: workers})
	}

	return transformer.Chain{
		builtin.NormalizeSchema{},
		builtin.RequireColumns{Columns: Columns(), Encoded: encoded()},
		builtin.BinaryMap{Column: Sex, Mapping: SexMapping},
		mode("sex", Sex),
		mean("bmi", BMI),
		transformer.Named("ecog_referral", builtin.ScoreImpute{Column: ECOGReferral, Min: 0, Max: 4}),
		transformer.Named("ecog_admission", builtin.ScoreImpute{Column: ECOGAdmission, From: ECOGReferral, Min: 0, Max: 4}),
		transformer.Named("diagnosis", DiagnosisEncoder),
		transformer.Named("treatment", TreatmentEncoder),
		transformer.Named("anticancer_therapy", builtin.YesNo{Columns: []string{AnticancerTherapy}, Fill: builtin.FillFalse}),
		transformer.Named("admission_reason", AdmissionReasonEncoder),
		builtin.BinaryMap{Column: SurgicalOrMedical, Mapping: SurgicalMapping},
		mode("surgical_or_medical", SurgicalOrMedical),
		mode("news2", NEWS2),
		mode("temperatures", Temperatures...),
		mean("pre_admission_vitals", PreAdmissionVitals...),
		transformer.Named("yes_no", builtin.YesNo{Columns: YesNoFields, Fill: builtin.FillMode}),
		mean("observations", Observations...),
		mean("urine_output", UrineOutput),
		transformer.Named("ventilation", VentilationEncoder),
		mean("bloods", Bloods...),
		transformer.Named("critical_care_days", builtin.RepairNegatives{Column: DaysInCriticalCare, Decimals: 2}),
	}
}

// Watches returns the rows logged around the critical care days repair.
func Watches() []transformer.Watch {
	return []transformer.Watch{{Column: DaysInCriticalCare, From: 95, To: 100}}
}

func init() {
	builtin.RegisterCatalog("admissions", Steps)
}
