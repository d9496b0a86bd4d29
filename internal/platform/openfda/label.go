package openfda

// Label is one openFDA drug label. Every section is optional; openFDA sends
// each as an array of text blocks.
type Label struct {
	ID            string `json:"id"`
	SetID         string `json:"set_id,omitempty"`
	Version       string `json:"version,omitempty"`
	EffectiveTime string `json:"effective_time,omitempty"`

	OpenFDA OpenFDA `json:"openfda"`

	IndicationsAndUsage      []string `json:"indications_and_usage,omitempty"`
	Purpose                  []string `json:"purpose,omitempty"`
	ActiveIngredient         []string `json:"active_ingredient,omitempty"`
	InactiveIngredient       []string `json:"inactive_ingredient,omitempty"`
	Warnings                 []string `json:"warnings,omitempty"`
	BoxedWarning             []string `json:"boxed_warning,omitempty"`
	DoNotUse                 []string `json:"do_not_use,omitempty"`
	StopUse                  []string `json:"stop_use,omitempty"`
	AskDoctor                []string `json:"ask_doctor,omitempty"`
	AskDoctorOrPharmacist    []string `json:"ask_doctor_or_pharmacist,omitempty"`
	PregnancyOrBreastFeeding []string `json:"pregnancy_or_breast_feeding,omitempty"`
	KeepOutOfReach           []string `json:"keep_out_of_reach_of_children,omitempty"`
	Contraindications        []string `json:"contraindications,omitempty"`
	WarningsAndCautions      []string `json:"warnings_and_cautions,omitempty"`
	DrugInteractions         []string `json:"drug_interactions,omitempty"`
	AdverseReactions         []string `json:"adverse_reactions,omitempty"`
	DosageAndAdministration  []string `json:"dosage_and_administration,omitempty"`
}

// OpenFDA is the harmonized block openFDA attaches to each label.
type OpenFDA struct {
	BrandName        []string `json:"brand_name,omitempty"`
	GenericName      []string `json:"generic_name,omitempty"`
	ManufacturerName []string `json:"manufacturer_name,omitempty"`
	SubstanceName    []string `json:"substance_name,omitempty"`
	ProductType      []string `json:"product_type,omitempty"`
	Route            []string `json:"route,omitempty"`
	RxCUI            []string `json:"rxcui,omitempty"`
}

// DisplayName returns the first generic name, falling back to the first
// brand name. It is empty when the label carries neither.
func (l *Label) DisplayName() string {
	if n := first(l.OpenFDA.GenericName); n != "" {
		return n
	}
	return first(l.OpenFDA.BrandName)
}

// Indication returns the first indications_and_usage block.
func (l *Label) Indication() string {
	return first(l.IndicationsAndUsage)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
