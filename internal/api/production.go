package api

import (
	"context"
	"net/url"
)

// Unit 生产中的单元
type Unit struct {
	SerialNumber       string `json:"serialNumber"`
	PartNumber         string `json:"partNumber"`
	Revision           string `json:"revision,omitempty"`
	ParentSerialNumber string `json:"parentSerialNumber,omitempty"`
	BatchNumber        string `json:"batchNumber,omitempty"`
	CurrentLocation    string `json:"currentLocation,omitempty"`
	UnitPhase          string `json:"unitPhase,omitempty"`
}

// ProductionService 查询生产单元
type ProductionService struct {
	http HTTPClient
}

// GetUnit 按序列号和料号查询单元
func (s *ProductionService) GetUnit(ctx context.Context, serialNumber, partNumber string) (*Unit, error) {
	var u Unit
	path := "/api/Production/Unit/" + url.PathEscape(serialNumber) + "/" + url.PathEscape(partNumber)
	if err := getJSON(ctx, s.http, path, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
