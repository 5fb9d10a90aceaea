package domain

// TemplateType tags the participant-count template a match was created from.
type TemplateType string

const (
	TemplateClassic1v3 TemplateType = "classic_1v3"
	TemplateDuo2v2     TemplateType = "duo_2v2"
	TemplateMini1v2    TemplateType = "mini_1v2"
	TemplateGrand2v6   TemplateType = "grand_2v6"
)

// MatchTemplate fixes the roster shape of a match: how many slots total and
// how many of them are humans. Human slots take the first canonical letters,
// robot slots the rest.
type MatchTemplate struct {
	Type              TemplateType
	TotalParticipants int
	HumanSlots        int
}

var templates = map[TemplateType]MatchTemplate{
	TemplateClassic1v3: {Type: TemplateClassic1v3, TotalParticipants: 4, HumanSlots: 1},
	TemplateDuo2v2:     {Type: TemplateDuo2v2, TotalParticipants: 4, HumanSlots: 2},
	TemplateMini1v2:    {Type: TemplateMini1v2, TotalParticipants: 3, HumanSlots: 1},
	TemplateGrand2v6:   {Type: TemplateGrand2v6, TotalParticipants: 8, HumanSlots: 2},
}

// TemplateByType resolves a template tag, falling back to classic_1v3 for
// unknown or empty tags to stay compatible with older match records.
func TemplateByType(t TemplateType) MatchTemplate {
	if tpl, ok := templates[t]; ok {
		return tpl
	}
	return templates[TemplateClassic1v3]
}
