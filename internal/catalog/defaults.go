package catalog

var defaultDivisions = []Division{
	{Code: "00", Title: "Procurement and Contracting Requirements"},
	{Code: "01", Title: "General Requirements"},
	{Code: "02", Title: "Existing Conditions"},
	{Code: "03", Title: "Concrete", Keywords: []string{"CONCRETE", "CAST-IN-PLACE", "FORMWORK", "REINFORCEMENT", "REBAR"}},
	{Code: "04", Title: "Masonry", Keywords: []string{"MASONRY", "CMU", "BRICK", "MORTAR", "GROUT", "UNIT MASONRY", "VENEER"}},
	{Code: "05", Title: "Metals", Keywords: []string{"STRUCTURAL STEEL", "METAL FABRICATIONS", "STEEL DECK"}},
	{Code: "06", Title: "Wood, Plastics, and Composites", Keywords: []string{"CARPENTRY", "ROUGH CARPENTRY", "FINISH CARPENTRY", "MILLWORK"}},
	{Code: "07", Title: "Thermal and Moisture Protection", Keywords: []string{"WATERPROOFING", "INSULATION", "ROOFING", "SIDING", "FLASHING"}},
	{Code: "08", Title: "Openings", Keywords: []string{"DOORS", "WINDOWS", "HARDWARE", "GLAZING"}},
	{Code: "09", Title: "Finishes", Keywords: []string{"FINISHES", "GYPSUM", "DRYWALL", "TILE", "FLOORING", "PAINT"}},
	{Code: "10", Title: "Specialties"},
	{Code: "11", Title: "Equipment"},
	{Code: "12", Title: "Furnishings"},
	{Code: "13", Title: "Special Construction"},
	{Code: "14", Title: "Conveying Equipment"},
	{Code: "21", Title: "Fire Suppression", Keywords: []string{"FIRE SUPPRESSION", "SPRINKLER"}},
	{Code: "22", Title: "Plumbing", Keywords: []string{"PLUMBING", "PIPING", "FIXTURES"}},
	{Code: "23", Title: "Heating, Ventilating, and Air Conditioning", Keywords: []string{"HVAC", "MECHANICAL", "DUCTWORK", "AIR CONDITIONING"}},
	{Code: "25", Title: "Integrated Automation"},
	{Code: "26", Title: "Electrical", Keywords: []string{"ELECTRICAL", "WIRING", "CONDUIT", "PANELS", "LIGHTING"}},
	{Code: "27", Title: "Communications", Keywords: []string{"COMMUNICATIONS", "DATA", "TELECOM"}},
	{Code: "28", Title: "Electronic Safety and Security", Keywords: []string{"FIRE ALARM", "SECURITY", "DETECTION"}},
	{Code: "31", Title: "Earthwork", Keywords: []string{"EARTHWORK", "EXCAVATION", "GRADING", "SITE CLEARING"}},
	{Code: "32", Title: "Exterior Improvements", Keywords: []string{"EXTERIOR IMPROVEMENTS", "PAVING", "LANDSCAPE"}},
	{Code: "33", Title: "Utilities", Keywords: []string{"UTILITIES", "STORM DRAINAGE", "SANITARY SEWER"}},
	{Code: "34", Title: "Transportation"},
	{Code: "35", Title: "Waterway and Marine Construction"},
	{Code: "40", Title: "Process Interconnections"},
	{Code: "41", Title: "Material Processing and Handling Equipment"},
	{Code: "42", Title: "Process Heating, Cooling, and Drying Equipment"},
	{Code: "43", Title: "Process Gas and Liquid Handling, Purification, and Storage Equipment"},
	{Code: "44", Title: "Pollution and Waste Control Equipment"},
	{Code: "45", Title: "Industry-Specific Manufacturing Equipment"},
	{Code: "46", Title: "Water and Wastewater Equipment"},
	{Code: "47", Title: "Reserved"},
	{Code: "48", Title: "Electrical Power Generation"},
}

var defaultTrades = []Trade{
	{Name: "masonry", Division: "04", Label: "Masonry", Keywords: []string{"MASONRY", "BRICK", "CMU", "MORTAR", "GROUT", "UNIT MASONRY"}},
	{Name: "concrete", Division: "03", Label: "Concrete", Keywords: []string{"CONCRETE", "CAST-IN-PLACE", "FORMWORK", "REINFORCEMENT"}},
	{Name: "steel", Division: "05", Label: "Structural Steel", Keywords: []string{"STRUCTURAL STEEL", "METAL FABRICATIONS", "STEEL JOISTS"}},
	{Name: "wood", Division: "06", Label: "Wood/Plastics/Composites", Keywords: []string{"ROUGH CARPENTRY", "FINISH CARPENTRY", "MILLWORK", "LUMBER"}},
	{Name: "thermal", Division: "07", Label: "Thermal & Moisture Protection", Keywords: []string{"WATERPROOFING", "INSULATION", "ROOFING", "SEALANTS", "FLASHING"}},
	{Name: "openings", Division: "08", Label: "Openings", Keywords: []string{"DOORS", "WINDOWS", "HARDWARE", "GLAZING", "FRAMES"}},
	{Name: "finishes", Division: "09", Label: "Finishes", Keywords: []string{"DRYWALL", "GYPSUM", "PAINTING", "FLOORING", "TILE", "CEILING"}},
	{Name: "electrical", Division: "26", Label: "Electrical", Keywords: []string{"ELECTRICAL", "WIRING", "CONDUCTORS", "PANELBOARDS"}},
	{Name: "plumbing", Division: "22", Label: "Plumbing", Keywords: []string{"PLUMBING", "PIPING", "FIXTURES", "PUMPS"}},
	{Name: "mechanical", Division: "23", Label: "Mechanical/HVAC", Keywords: []string{"HVAC", "MECHANICAL", "DUCTWORK", "AIR HANDLING"}},
	{Name: "sitework", Division: "31", Label: "Earthwork", Keywords: []string{"EARTHWORK", "GRADING", "EXCAVATION", "SITE"}},
}
