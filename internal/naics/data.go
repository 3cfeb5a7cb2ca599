// Package naics carries the NAICS 2022 classification subset covering the
// program's eligible sectors and exposes lookups for facility
// classification on applications.
//
// Levels: 2-digit sector, 3-digit category (parent = sector; manufacturing
// categories parent to the consolidated "31-33"), 6-digit facility type
// (parent = the first three digits). The dataset is abridged to
// program-eligible classifications.
package naics

// Code is one NAICS classification entry.
type Code struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Parent string `json:"parent"`
}

// Eligible sectors: agriculture, mining, utilities, construction,
// manufacturing (31-33 consolidated), transportation, administrative and
// waste services.
var sectors = []Code{
	{Code: "11", Title: "Agriculture, forestry, fishing and hunting", Level: 2, Parent: ""},
	{Code: "21", Title: "Mining, quarrying, and oil and gas extraction", Level: 2, Parent: ""},
	{Code: "22", Title: "Utilities", Level: 2, Parent: ""},
	{Code: "23", Title: "Construction", Level: 2, Parent: ""},
	{Code: "31-33", Title: "Manufacturing", Level: 2, Parent: ""},
	{Code: "48", Title: "Transportation and warehousing", Level: 2, Parent: ""},
	{Code: "56", Title: "Administrative and support, waste management and remediation services", Level: 2, Parent: ""},
}

var categories = []Code{
	{Code: "111", Title: "Crop production", Level: 3, Parent: "11"},
	{Code: "112", Title: "Animal production and aquaculture", Level: 3, Parent: "11"},
	{Code: "113", Title: "Forestry and logging", Level: 3, Parent: "11"},
	{Code: "114", Title: "Fishing, hunting and trapping", Level: 3, Parent: "11"},
	{Code: "115", Title: "Support activities for agriculture and forestry", Level: 3, Parent: "11"},

	{Code: "211", Title: "Oil and gas extraction", Level: 3, Parent: "21"},
	{Code: "212", Title: "Mining and quarrying (except oil and gas)", Level: 3, Parent: "21"},
	{Code: "213", Title: "Support activities for mining and oil and gas extraction", Level: 3, Parent: "21"},

	{Code: "221", Title: "Utilities", Level: 3, Parent: "22"},

	{Code: "236", Title: "Construction of buildings", Level: 3, Parent: "23"},
	{Code: "237", Title: "Heavy and civil engineering construction", Level: 3, Parent: "23"},
	{Code: "238", Title: "Specialty trade contractors", Level: 3, Parent: "23"},

	{Code: "311", Title: "Food manufacturing", Level: 3, Parent: "31-33"},
	{Code: "312", Title: "Beverage and tobacco product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "313", Title: "Textile mills", Level: 3, Parent: "31-33"},
	{Code: "314", Title: "Textile product mills", Level: 3, Parent: "31-33"},
	{Code: "315", Title: "Clothing manufacturing", Level: 3, Parent: "31-33"},
	{Code: "316", Title: "Leather and allied product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "321", Title: "Wood product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "322", Title: "Paper manufacturing", Level: 3, Parent: "31-33"},
	{Code: "323", Title: "Printing and related support activities", Level: 3, Parent: "31-33"},
	{Code: "324", Title: "Petroleum and coal product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "325", Title: "Chemical manufacturing", Level: 3, Parent: "31-33"},
	{Code: "326", Title: "Plastics and rubber products manufacturing", Level: 3, Parent: "31-33"},
	{Code: "327", Title: "Non-metallic mineral product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "331", Title: "Primary metal manufacturing", Level: 3, Parent: "31-33"},
	{Code: "332", Title: "Fabricated metal product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "333", Title: "Machinery manufacturing", Level: 3, Parent: "31-33"},
	{Code: "334", Title: "Computer and electronic product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "335", Title: "Electrical equipment, appliance and component manufacturing", Level: 3, Parent: "31-33"},
	{Code: "336", Title: "Transportation equipment manufacturing", Level: 3, Parent: "31-33"},
	{Code: "337", Title: "Furniture and related product manufacturing", Level: 3, Parent: "31-33"},
	{Code: "339", Title: "Miscellaneous manufacturing", Level: 3, Parent: "31-33"},

	{Code: "481", Title: "Air transportation", Level: 3, Parent: "48"},
	{Code: "482", Title: "Rail transportation", Level: 3, Parent: "48"},
	{Code: "483", Title: "Water transportation", Level: 3, Parent: "48"},
	{Code: "484", Title: "Truck transportation", Level: 3, Parent: "48"},
	{Code: "485", Title: "Transit and ground passenger transportation", Level: 3, Parent: "48"},
	{Code: "486", Title: "Pipeline transportation", Level: 3, Parent: "48"},
	{Code: "488", Title: "Support activities for transportation", Level: 3, Parent: "48"},

	{Code: "561", Title: "Administrative and support services", Level: 3, Parent: "56"},
	{Code: "562", Title: "Waste management and remediation services", Level: 3, Parent: "56"},
}

var facilityTypes = []Code{
	{Code: "111419", Title: "Other food crops grown under cover", Level: 6, Parent: "111"},
	{Code: "112310", Title: "Chicken egg production", Level: 6, Parent: "112"},
	{Code: "113310", Title: "Logging", Level: 6, Parent: "113"},
	{Code: "114113", Title: "Salt water fishing", Level: 6, Parent: "114"},
	{Code: "115110", Title: "Support activities for crop production", Level: 6, Parent: "115"},

	{Code: "211110", Title: "Oil and gas extraction (except oil sands)", Level: 6, Parent: "211"},
	{Code: "212114", Title: "Bituminous coal mining", Level: 6, Parent: "212"},
	{Code: "212220", Title: "Gold and silver ore mining", Level: 6, Parent: "212"},
	{Code: "213118", Title: "Services to oil and gas extraction", Level: 6, Parent: "213"},

	{Code: "221111", Title: "Hydro-electric power generation", Level: 6, Parent: "221"},
	{Code: "221112", Title: "Fossil-fuel electric power generation", Level: 6, Parent: "221"},
	{Code: "221119", Title: "Other electric power generation", Level: 6, Parent: "221"},
	{Code: "221210", Title: "Natural gas distribution", Level: 6, Parent: "221"},
	{Code: "221310", Title: "Water supply and irrigation systems", Level: 6, Parent: "221"},

	{Code: "236110", Title: "Residential building construction", Level: 6, Parent: "236"},
	{Code: "236220", Title: "Commercial and institutional building construction", Level: 6, Parent: "236"},
	{Code: "237130", Title: "Power and communication line and related structures construction", Level: 6, Parent: "237"},
	{Code: "238220", Title: "Plumbing, heating and air-conditioning contractors", Level: 6, Parent: "238"},

	{Code: "311111", Title: "Dog and cat food manufacturing", Level: 6, Parent: "311"},
	{Code: "311611", Title: "Animal (except poultry) slaughtering", Level: 6, Parent: "311"},
	{Code: "311814", Title: "Commercial bakeries and frozen bakery product manufacturing", Level: 6, Parent: "311"},
	{Code: "312110", Title: "Soft drink and ice manufacturing", Level: 6, Parent: "312"},
	{Code: "312120", Title: "Breweries", Level: 6, Parent: "312"},
	{Code: "313210", Title: "Broad-woven fabric mills", Level: 6, Parent: "313"},
	{Code: "314110", Title: "Carpet and rug mills", Level: 6, Parent: "314"},
	{Code: "315190", Title: "Other clothing knitting mills", Level: 6, Parent: "315"},
	{Code: "316210", Title: "Footwear manufacturing", Level: 6, Parent: "316"},
	{Code: "321111", Title: "Sawmills (except shingle and shake mills)", Level: 6, Parent: "321"},
	{Code: "321215", Title: "Structural wood product manufacturing", Level: 6, Parent: "321"},
	{Code: "322111", Title: "Mechanical pulp mills", Level: 6, Parent: "322"},
	{Code: "322121", Title: "Paper (except newsprint) mills", Level: 6, Parent: "322"},
	{Code: "323113", Title: "Commercial screen printing", Level: 6, Parent: "323"},
	{Code: "324110", Title: "Petroleum refineries", Level: 6, Parent: "324"},
	{Code: "325181", Title: "Alkali and chlorine manufacturing", Level: 6, Parent: "325"},
	{Code: "325210", Title: "Resin and synthetic rubber manufacturing", Level: 6, Parent: "325"},
	{Code: "326130", Title: "Laminated plastic plate, sheet (except packaging), and shape manufacturing", Level: 6, Parent: "326"},
	{Code: "327310", Title: "Cement manufacturing", Level: 6, Parent: "327"},
	{Code: "327410", Title: "Lime manufacturing", Level: 6, Parent: "327"},
	{Code: "331110", Title: "Iron and steel mills and ferro-alloy manufacturing", Level: 6, Parent: "331"},
	{Code: "331313", Title: "Primary production of alumina and aluminum", Level: 6, Parent: "331"},
	{Code: "332113", Title: "Forging", Level: 6, Parent: "332"},
	{Code: "332810", Title: "Coating, engraving, heat treating and allied activities", Level: 6, Parent: "332"},
	{Code: "333120", Title: "Construction machinery manufacturing", Level: 6, Parent: "333"},
	{Code: "334110", Title: "Computer and peripheral equipment manufacturing", Level: 6, Parent: "334"},
	{Code: "335312", Title: "Motor and generator manufacturing", Level: 6, Parent: "335"},
	{Code: "336110", Title: "Automobile and light-duty motor vehicle manufacturing", Level: 6, Parent: "336"},
	{Code: "336370", Title: "Motor vehicle metal stamping", Level: 6, Parent: "336"},
	{Code: "337110", Title: "Wood kitchen cabinet and countertop manufacturing", Level: 6, Parent: "337"},
	{Code: "339110", Title: "Medical equipment and supplies manufacturing", Level: 6, Parent: "339"},

	{Code: "481110", Title: "Scheduled air transportation", Level: 6, Parent: "481"},
	{Code: "482112", Title: "Short-haul freight rail transportation", Level: 6, Parent: "482"},
	{Code: "483115", Title: "Deep sea, coastal and Great Lakes water transportation (except by ferries)", Level: 6, Parent: "483"},
	{Code: "484110", Title: "General freight trucking, local", Level: 6, Parent: "484"},
	{Code: "485110", Title: "Urban transit systems", Level: 6, Parent: "485"},
	{Code: "486110", Title: "Pipeline transportation of crude oil", Level: 6, Parent: "486"},
	{Code: "488310", Title: "Port and harbour operations", Level: 6, Parent: "488"},

	{Code: "561722", Title: "Janitorial services (except window cleaning)", Level: 6, Parent: "561"},
	{Code: "562210", Title: "Waste treatment and disposal", Level: 6, Parent: "562"},
	{Code: "562910", Title: "Remediation services", Level: 6, Parent: "562"},
}
