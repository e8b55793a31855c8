package models

// Street is the street part of an indexed address document.
type Street struct {
	ID                    string   `json:"id"`
	StreetName            string   `json:"street_name"`
	Label                 string   `json:"label"`
	AdministrativeRegions []*Admin `json:"administrative_regions"`
	Weight                float64  `json:"weight"`
	ZipCodes              []string `json:"zip_codes"`
	Coord                 Coord    `json:"coord"`
}

// Addr is the document handed to the address index.
type Addr struct {
	ID          string   `json:"id"`
	HouseNumber string   `json:"house_number"`
	Street      Street   `json:"street"`
	Label       string   `json:"label"`
	Coord       Coord    `json:"coord"`
	Weight      float64  `json:"weight"`
	ZipCodes    []string `json:"zip_codes"`
}
