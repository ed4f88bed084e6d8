package brenda

// Tag identifies the field code that prefixes a tagged-content line.
type Tag int

const (
	TagUnknown Tag = iota
	TagActivatingCompound
	TagApplication
	TagCofactor
	TagCloned
	TagCrystallization
	TagEngineering
	TagExpression
	TagGeneralInformation
	TagGeneralStability
	TagIC50Value
	TagID
	TagInhibitors
	TagKiValue
	TagKcatKmValue
	TagKmValue
	TagLocalization
	TagMetalsIons
	TagMolecularWeight
	TagNaturalSubstrateProduct
	TagOxidationStability
	TagOrganicSolventStability
	TagPHOptimum
	TagPHRange
	TagPHStability
	TagPIValue
	TagPosttranslationalModification
	TagProtein
	TagPurification
	TagReaction
	TagRenatured
	TagReference
	TagRecommendedName
	TagReactionType
	TagSpecificActivity
	TagSystematicName
	TagSubstrateProduct
	TagStorageStability
	TagSourceTissue
	TagSubunits
	TagSynonyms
	TagTurnoverNumber
	TagTemperatureOptimum
	TagTemperatureRange
	TagTemperatureStability
)

type tagInfo struct {
	code    string
	section string
}

var tagTable = [...]tagInfo{
	TagUnknown:                       {"", ""},
	TagActivatingCompound:            {"AC", "ACTIVATING_COMPOUND"},
	TagApplication:                   {"AP", "APPLICATION"},
	TagCofactor:                      {"CF", "COFACTOR"},
	TagCloned:                        {"CL", "CLONED"},
	TagCrystallization:               {"CR", "CRYSTALLIZATION"},
	TagEngineering:                   {"EN", "ENGINEERING"},
	TagExpression:                    {"EXP", "EXPRESSION"},
	TagGeneralInformation:            {"GI", "GENERAL_INFORMATION"},
	TagGeneralStability:              {"GS", "GENERAL_STABILITY"},
	TagIC50Value:                     {"IC50", "IC50_VALUE"},
	TagID:                            {"ID", ""},
	TagInhibitors:                    {"IN", "INHIBITORS"},
	TagKiValue:                       {"KI", "KI_VALUE"},
	TagKcatKmValue:                   {"KKM", "KCAT_KM_VALUE"},
	TagKmValue:                       {"KM", "KM_VALUE"},
	TagLocalization:                  {"LO", "LOCALIZATION"},
	TagMetalsIons:                    {"ME", "METALS_IONS"},
	TagMolecularWeight:               {"MW", "MOLECULAR_WEIGHT"},
	TagNaturalSubstrateProduct:       {"NSP", "NATURAL_SUBSTRATE_PRODUCT"},
	TagOxidationStability:            {"OS", "OXIDATION_STABILITY"},
	TagOrganicSolventStability:       {"OSS", "ORGANIC_SOLVENT_STABILITY"},
	TagPHOptimum:                     {"PHO", "PH_OPTIMUM"},
	TagPHRange:                       {"PHR", "PH_RANGE"},
	TagPHStability:                   {"PHS", "PH_STABILITY"},
	TagPIValue:                       {"PI", "PI_VALUE"},
	TagPosttranslationalModification: {"PM", "POSTTRANSLATIONAL_MODIFICATION"},
	TagProtein:                       {"PR", "PROTEIN"},
	TagPurification:                  {"PU", "PURIFICATION"},
	TagReaction:                      {"RE", "REACTION"},
	TagRenatured:                     {"REN", "RENATURED"},
	TagReference:                     {"RF", "REFERENCE"},
	TagRecommendedName:               {"RN", "RECOMMENDED_NAME"},
	TagReactionType:                  {"RT", "REACTION_TYPE"},
	TagSpecificActivity:              {"SA", "SPECIFIC_ACTIVITY"},
	TagSystematicName:                {"SN", "SYSTEMATIC_NAME"},
	TagSubstrateProduct:              {"SP", "SUBSTRATE_PRODUCT"},
	TagStorageStability:              {"SS", "STORAGE_STABILITY"},
	TagSourceTissue:                  {"ST", "SOURCE_TISSUE"},
	TagSubunits:                      {"SU", "SUBUNITS"},
	TagSynonyms:                      {"SY", "SYNONYMS"},
	TagTurnoverNumber:                {"TN", "TURNOVER_NUMBER"},
	TagTemperatureOptimum:            {"TO", "TEMPERATURE_OPTIMUM"},
	TagTemperatureRange:              {"TR", "TEMPERATURE_RANGE"},
	TagTemperatureStability:          {"TS", "TEMPERATURE_STABILITY"},
}

var tagsByCode = func() map[string]Tag {
	m := make(map[string]Tag, len(tagTable))
	for i, info := range tagTable {
		if info.code != "" {
			m[info.code] = Tag(i)
		}
	}
	return m
}()

// ParseTag maps a field code such as "PR" to its Tag. Unrecognised codes
// return TagUnknown.
func ParseTag(code string) Tag {
	if tag, ok := tagsByCode[code]; ok {
		return tag
	}
	return TagUnknown
}

// Code returns the field code written at the start of a line.
func (t Tag) Code() string {
	if t < 0 || int(t) >= len(tagTable) {
		return ""
	}
	return tagTable[t].code
}

// Section returns the section heading the tag must appear under. The
// classification code tag has no section.
func (t Tag) Section() string {
	if t < 0 || int(t) >= len(tagTable) {
		return ""
	}
	return tagTable[t].section
}

// String returns the two-letter tag code.
func (t Tag) String() string {
	if code := t.Code(); code != "" {
		return code
	}
	return "unknown"
}
