package sources

import (
	"PolicyDigest/internal/scanner"
)

// Display names used by bundles and pages.
const (
	NewsCongress = "Congress"
)

// NewsSource is one agency feed of the news bundle.
type NewsSource struct {
	Name    string
	Adapter scanner.Adapter
}

// HouseCommittee pairs the majority and minority press pages of a committee.
type HouseCommittee struct {
	Name     string
	Majority scanner.Adapter
	Minority scanner.Adapter
}

// SenateCommittee is a committee whose adapter returns majority, minority
// and hearing items in one envelope.
type SenateCommittee struct {
	Name    string
	Adapter scanner.Adapter
}

// Catalog is the fixed source inventory grouped by bundle domain.
type Catalog struct {
	News   []NewsSource
	House  []HouseCommittee
	Senate []SenateCommittee
}

// NewCatalog builds every adapter against its production site.
func NewCatalog(f *Fetcher) Catalog {
	return Catalog{
		News: []NewsSource{
			{Name: "CMS", Adapter: &cmsNewsroom{f: f, base: cmsBase}},
			{Name: "CMS Innovation Center", Adapter: &cmsInnovation{f: f, base: cmsBase}},
			{Name: "CRS", Adapter: &crsProducts{f: f, base: congressBase}},
			{Name: NewsCongress, Adapter: &congressLegislation{f: f, base: congressBase}},
			{Name: "FDA", Adapter: &fdaPress{f: f, base: fdaBase}},
			{Name: "Federal Register Public Inspection Desk", Adapter: &federalRegister{f: f, base: federalRegBase}},
			{Name: "HHS", Adapter: &hhsPressRoom{f: f, base: hhsBase}},
			{Name: "OMB First Glance Rulemaking", Adapter: &ombRulemaking{f: f, base: reginfoBase}},
			{Name: "White House", Adapter: &whiteHouseNews{f: f, base: whiteHouseBase}},
		},
		House: []HouseCommittee{
			{
				Name:     "Appropriations",
				Majority: appropriationsMajority(f, "https://appropriations.house.gov"),
				Minority: appropriationsMinority(f, "https://democrats-appropriations.house.gov"),
			},
			{
				Name:     "Budget",
				Majority: budgetMajority(f, "https://budget.house.gov"),
				Minority: budgetMinority(f, "https://democrats-budget.house.gov"),
			},
			{
				Name:     "Education and Workforce",
				Majority: educationMajority(f, "https://edworkforce.house.gov"),
				Minority: educationMinority(f, "https://democrats-edworkforce.house.gov"),
			},
			{
				Name:     "Energy and Commerce (E&C)",
				Majority: energyMajority(f, "https://energycommerce.house.gov"),
				Minority: energyMinority(f, "https://democrats-energycommerce.house.gov"),
			},
			{
				Name:     "Homeland Security",
				Majority: homelandMajority(f, "https://homeland.house.gov"),
				Minority: homelandMinority(f, "https://democrats-homeland.house.gov"),
			},
			{
				Name:     "Joint Economic",
				Majority: jointEconomicMajority(f, "https://www.jec.senate.gov"),
				Minority: jointEconomicMinority(f, "https://www.jec.senate.gov"),
			},
			{
				Name:     "Judiciary",
				Majority: judiciaryMajority(f, "https://judiciary.house.gov"),
				Minority: judiciaryMinority(f, "https://democrats-judiciary.house.gov"),
			},
			{
				Name:     "Natural Resources",
				Majority: naturalResourcesMajority(f, "https://naturalresources.house.gov"),
				Minority: naturalResourcesMinority(f, "https://democrats-naturalresources.house.gov"),
			},
			{
				Name:     "Oversight",
				Majority: oversightMajority(f, "https://oversight.house.gov"),
				Minority: oversightMinority(f, "https://oversightdemocrats.house.gov"),
			},
			{
				Name:     "Rules",
				Majority: rulesMajority(f, "https://rules.house.gov"),
				Minority: rulesMinority(f, "https://democrats-rules.house.gov"),
			},
			{
				Name:     "Small Business",
				Majority: smallBusinessMajority(f, "https://smallbusiness.house.gov"),
				Minority: smallBusinessMinority(f, "https://democrats-smallbusiness.house.gov"),
			},
			{
				Name:     "Veterans Affairs",
				Majority: veteransMajority(f, "https://veterans.house.gov"),
				Minority: veteransMinority(f, "https://democrats-veterans.house.gov"),
			},
			{
				Name:     "Ways and Means",
				Majority: waysMeansMajority(f, "https://waysandmeans.house.gov"),
				Minority: waysMeansMinority(f, "https://democrats-waysandmeans.house.gov"),
			},
		},
		Senate: []SenateCommittee{
			{Name: "Aging", Adapter: agingCommittee(f, "https://www.aging.senate.gov")},
			{Name: "Appropriations", Adapter: appropriationsCommittee(f, "https://www.appropriations.senate.gov")},
			{Name: "Budget", Adapter: budgetCommittee(f, "https://www.budget.senate.gov")},
			{Name: "Finance", Adapter: financeCommittee(f, "https://www.finance.senate.gov")},
			{Name: "Health, Education, Labor & Pensions (HELP)", Adapter: helpCommittee(f, "https://www.help.senate.gov")},
			{Name: "Homeland Security and Governmental Affairs (Oversight)", Adapter: homelandCommittee(f, "https://www.hsgac.senate.gov")},
			{Name: "Indian Affairs", Adapter: indianAffairsCommittee(f, "https://www.indian.senate.gov")},
			{Name: "Judiciary", Adapter: judiciaryCommittee(f, "https://www.judiciary.senate.gov")},
			{Name: "Veterans Affairs", Adapter: veteransCommittee(f, "https://www.veterans.senate.gov")},
			{Name: "Small Business", Adapter: smallBusinessCommittee(f, "https://www.sbc.senate.gov")},
		},
	}
}

// Register adds every adapter of the catalog to reg.
func (c Catalog) Register(reg *scanner.Registry) {
	for _, s := range c.News {
		reg.Register(s.Adapter)
	}
	for _, h := range c.House {
		reg.Register(h.Majority)
		reg.Register(h.Minority)
	}
	for _, s := range c.Senate {
		reg.Register(s.Adapter)
	}
}
