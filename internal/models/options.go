package models

// Canonical option codes
const (
	OptionCodeApparelSize  = "apparel_size"
	OptionCodeFootwearSize = "footwear_size"
	OptionCodeHardwareSize = "hardware_size"
	OptionCodeCupSize      = "cup_size"
	OptionCodeInsoleLength = "insole_length"
	OptionCodeColor        = "color"
	OptionCodeGender       = "gender"
	OptionCodeSport        = "sport"
	OptionCodeKind         = "kind"
	OptionCodeBrand        = "brand"
	OptionCodeOutlet       = "outlet"
	OptionCodeWeight       = "weight"
	OptionCodeLength       = "length"
	OptionCodeHeight       = "height"
	OptionCodeWidth        = "width"
)

// Vendor (original) option codes written by the importer
const (
	OptionCodeOriginalSize   = "original_size"
	OptionCodeOriginalColor  = "original_color"
	OptionCodeOriginalGender = "original_gender"
	OptionCodeOriginalSport  = "original_sport"
	OptionCodeOriginalKind   = "original_kind"
)

// Outlet option variant codes
const (
	OutletVariantOutlet  = "outlet"
	OutletVariantRegular = "regular"
)

// Root category codes gating size families
const (
	CategoryApparel  = "apparel"
	CategoryFootwear = "footwear"
	CategoryHardware = "hardware"
)

// FindOption returns the first assignment with the given option code
func FindOption(options []ProductOptionView, code string) *ProductOptionView {
	for i := range options {
		if options[i].OptionCode == code {
			return &options[i]
		}
	}
	return nil
}

// OptionValue returns the variant of the first assignment with the given option code
func OptionValue(options []ProductOptionView, code string) *OptionVariant {
	po := FindOption(options, code)
	if po == nil {
		return nil
	}
	v := po.Variant()
	return &v
}

// MappingKey is the lookup key of the vendor value mapping table
type MappingKey struct {
	Raw    string
	Brand  string
	Gender string
	Kind   string
}
