package disease

import "github.com/hitoshi/epiwatch/internal/model"

// metadata は疾病ごとの静的メタデータ。IDは1〜10で固定。
// バックエンド不達時のフォールバックカタログの基礎になる。
type metadata struct {
	ID          int
	Description string
	Symptoms    string
	Prevention  string
	Treatment   string
	Severity    model.Severity
	DataSource  string
}

// diseaseMetadata は追跡対象10疾病の静的メタデータ。
var diseaseMetadata = map[string]metadata{
	"COVID-19": {
		ID:          1,
		Description: "Coronavirus disease caused by SARS-CoV-2",
		Symptoms:    "Fever, cough, shortness of breath, loss of taste/smell",
		Prevention:  "Vaccination, mask wearing, hand hygiene, social distancing",
		Treatment:   "Supportive care, antiviral medications, monoclonal antibodies",
		Severity:    model.SeverityHigh,
		DataSource:  "covid",
	},
	"Tuberculosis": {
		ID:          2,
		Description: "Bacterial infection that primarily affects the lungs",
		Symptoms:    "Persistent cough, chest pain, weight loss, fever, night sweats",
		Prevention:  "BCG vaccination, infection control, treating latent TB",
		Treatment:   "Antibiotics (6-9 months), directly observed therapy",
		Severity:    model.SeverityHigh,
		DataSource:  "who",
	},
	"Malaria": {
		ID:          3,
		Description: "Mosquito-borne parasitic disease",
		Symptoms:    "Fever, chills, headache, nausea, vomiting, muscle pain",
		Prevention:  "Insecticide-treated nets, antimalarial drugs, mosquito control",
		Treatment:   "Antimalarial medications (artemisinin-based therapy)",
		Severity:    model.SeverityHigh,
		DataSource:  "who",
	},
	"HIV/AIDS": {
		ID:          4,
		Description: "Human immunodeficiency virus infection",
		Symptoms:    "Flu-like symptoms initially, then immunodeficiency",
		Prevention:  "Safe sex practices, PrEP, needle exchange programs",
		Treatment:   "Antiretroviral therapy (ART)",
		Severity:    model.SeverityHigh,
		DataSource:  "who",
	},
	"Dengue": {
		ID:          5,
		Description: "Mosquito-borne viral infection",
		Symptoms:    "High fever, severe headache, joint pain, rash",
		Prevention:  "Mosquito control, protective clothing, vaccine (in some countries)",
		Treatment:   "Supportive care, fluid management",
		Severity:    model.SeverityMedium,
		DataSource:  "static",
	},
	"Influenza": {
		ID:          6,
		Description: "Seasonal respiratory viral infection",
		Symptoms:    "Fever, cough, body aches, fatigue",
		Prevention:  "Annual vaccination, hand hygiene, avoid close contact",
		Treatment:   "Antiviral drugs, supportive care",
		Severity:    model.SeverityMedium,
		DataSource:  "static",
	},
	"Measles": {
		ID:          7,
		Description: "Highly contagious viral disease",
		Symptoms:    "High fever, cough, runny nose, red eyes, rash",
		Prevention:  "MMR vaccination, isolation of cases",
		Treatment:   "Supportive care, vitamin A supplementation",
		Severity:    model.SeverityMedium,
		DataSource:  "who",
	},
	"Ebola": {
		ID:          8,
		Description: "Severe hemorrhagic fever caused by Ebola virus",
		Symptoms:    "Fever, severe headache, muscle pain, weakness, diarrhea, bleeding",
		Prevention:  "Vaccine (Ervebo), infection control, safe burial practices",
		Treatment:   "Supportive care, monoclonal antibodies",
		Severity:    model.SeverityCritical,
		DataSource:  "static",
	},
	"Cholera": {
		ID:          9,
		Description: "Acute diarrheal infection caused by Vibrio cholerae",
		Symptoms:    "Severe watery diarrhea, dehydration, vomiting",
		Prevention:  "Clean water, sanitation, oral cholera vaccine",
		Treatment:   "Oral rehydration, antibiotics in severe cases",
		Severity:    model.SeverityHigh,
		DataSource:  "static",
	},
	"Yellow Fever": {
		ID:          10,
		Description: "Viral hemorrhagic disease transmitted by mosquitoes",
		Symptoms:    "Fever, headache, jaundice, muscle pain, bleeding",
		Prevention:  "Vaccination, mosquito control",
		Treatment:   "Supportive care",
		Severity:    model.SeverityHigh,
		DataSource:  "static",
	},
}

// staticFigures はCOVID-19以外の9疾病の静的な疫学推計値。
// recovered は totalCases - deaths - activeCases で導出する。
// シードデータの不整合により負になり得るが、既知のデータ品質課題として
// 補正せずそのまま通す。
type staticFigure struct {
	TotalCases  int64
	Deaths      int64
	ActiveCases int64
	Countries   int
}

var staticFigures = map[string]staticFigure{
	"Tuberculosis": {TotalCases: 10600000, Deaths: 1300000, ActiveCases: 4500000, Countries: 195},
	"Malaria":      {TotalCases: 247000000, Deaths: 619000, ActiveCases: 85000000, Countries: 87},
	"HIV/AIDS":     {TotalCases: 38400000, Deaths: 690000, ActiveCases: 28700000, Countries: 195},
	"Measles":      {TotalCases: 9000000, Deaths: 128000, ActiveCases: 450000, Countries: 140},
	"Dengue":       {TotalCases: 390000000, Deaths: 40000, ActiveCases: 19500000, Countries: 129},
	"Influenza":    {TotalCases: 1000000000, Deaths: 650000, ActiveCases: 50000000, Countries: 195},
	"Ebola":        {TotalCases: 35000, Deaths: 15000, ActiveCases: 1750, Countries: 10},
	"Cholera":      {TotalCases: 2900000, Deaths: 95000, ActiveCases: 145000, Countries: 47},
	"Yellow Fever": {TotalCases: 200000, Deaths: 30000, ActiveCases: 10000, Countries: 34},
}

// countryShare は国別症例データを持たない疾病向けの人口シェア近似係数。
// 疾病の総計にこの係数を掛けて国別推計を合成する。実データではなく
// 明示的な近似ポリシー。
type countryShare struct {
	Country string
	Share   float64
}

var countryShares = []countryShare{
	{"United States", 0.15},
	{"India", 0.12},
	{"Brazil", 0.08},
	{"China", 0.07},
	{"United Kingdom", 0.05},
	{"Russia", 0.04},
	{"France", 0.03},
	{"Germany", 0.03},
	{"Italy", 0.025},
	{"Spain", 0.025},
	{"Mexico", 0.02},
	{"Indonesia", 0.02},
	{"Japan", 0.015},
	{"Canada", 0.015},
	{"South Africa", 0.01},
}
