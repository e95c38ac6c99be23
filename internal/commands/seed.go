package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-portfolio-crm/model"
	"github.com/goliatone/go-portfolio-crm/mutation"
)

// SeedFile is the YAML layout accepted by the seed command.
//
//	districts:
//	  - name: Kentron
//	    buildings:
//	      - name: Tower 1
//	        apartments:
//	          - apartment_no: "12-05"
//	            status: available
//	            sqm: "52.4"
//	            price_sqm: "650000"
type SeedFile struct {
	Districts []SeedDistrict `yaml:"districts"`
}

type SeedDistrict struct {
	Name      string         `yaml:"name"`
	Slug      string         `yaml:"slug"`
	Buildings []SeedBuilding `yaml:"buildings"`
}

type SeedBuilding struct {
	Name       string          `yaml:"name"`
	Slug       string          `yaml:"slug"`
	Apartments []SeedApartment `yaml:"apartments"`
}

// SeedApartment keeps amounts as strings so they parse exactly.
type SeedApartment struct {
	ApartmentNo   string  `yaml:"apartment_no"`
	ApartmentType *int    `yaml:"apartment_type"`
	Status        string  `yaml:"status"`
	SalesType     string  `yaml:"sales_type"`
	Sqm           string  `yaml:"sqm"`
	PricePerSqm   string  `yaml:"price_sqm"`
	TotalPrice    string  `yaml:"total_price"`
	TotalPaid     string  `yaml:"total_paid"`
	DealDate      string  `yaml:"deal_date"`
	OwnershipName *string `yaml:"ownership_name"`
	Email         *string `yaml:"email"`
	Phone         *string `yaml:"phone"`
}

// SeedWriter is the part of the mutation gateway seeding needs.
type SeedWriter interface {
	CreateDistrict(ctx context.Context, in mutation.DistrictInput) (*model.District, error)
	CreateBuilding(ctx context.Context, in mutation.BuildingInput) (*model.Building, error)
	CreateApartment(ctx context.Context, in mutation.ApartmentInput) (*model.Apartment, error)
}

// SeedReport counts the records a seed run created.
type SeedReport struct {
	Districts  int
	Buildings  int
	Apartments int
}

// ParseSeed decodes a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) (*SeedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &f, nil
}

// toInput converts a seeded apartment, resolving enums and amounts.
func (a SeedApartment) toInput() (mutation.ApartmentInput, error) {
	in := mutation.ApartmentInput{
		ApartmentNo:   a.ApartmentNo,
		ApartmentType: a.ApartmentType,
		OwnershipName: a.OwnershipName,
		Email:         a.Email,
		Phone:         a.Phone,
	}

	if a.Status != "" {
		status, err := model.ParseStatus(a.Status)
		if err != nil {
			return in, err
		}
		in.Status = status
	}
	if a.SalesType != "" {
		salesType, err := model.ParseSalesType(a.SalesType)
		if err != nil {
			return in, err
		}
		in.SalesType = salesType
	}

	for _, amount := range []struct {
		name string
		raw  string
		dst  *decimal.NullDecimal
	}{
		{"sqm", a.Sqm, &in.Sqm},
		{"price_sqm", a.PricePerSqm, &in.PricePerSqm},
		{"total_price", a.TotalPrice, &in.TotalPrice},
		{"total_paid", a.TotalPaid, &in.TotalPaid},
	} {
		if amount.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(amount.raw)
		if err != nil {
			return in, fmt.Errorf("%s: %w", amount.name, err)
		}
		*amount.dst = decimal.NewNullDecimal(d)
	}

	if a.DealDate != "" {
		date, err := time.Parse(time.DateOnly, a.DealDate)
		if err != nil {
			return in, fmt.Errorf("deal_date: %w", err)
		}
		in.DealDate = &date
	}
	return in, nil
}

// Seed creates every record in f through w, parents first. It stops at the
// first failure; records created before it are kept.
func Seed(ctx context.Context, w SeedWriter, f *SeedFile) (SeedReport, error) {
	var report SeedReport
	for _, sd := range f.Districts {
		district, err := w.CreateDistrict(ctx, mutation.DistrictInput{Name: sd.Name, Slug: sd.Slug})
		if err != nil {
			return report, fmt.Errorf("district %q: %w", sd.Name, err)
		}
		report.Districts++

		for _, sb := range sd.Buildings {
			building, err := w.CreateBuilding(ctx, mutation.BuildingInput{
				DistrictID: &district.ID,
				Name:       sb.Name,
				Slug:       sb.Slug,
			})
			if err != nil {
				return report, fmt.Errorf("building %q: %w", sb.Name, err)
			}
			report.Buildings++

			for _, sa := range sb.Apartments {
				in, err := sa.toInput()
				if err != nil {
					return report, fmt.Errorf("apartment %q: %w", sa.ApartmentNo, err)
				}
				in.BuildingID = building.ID
				if _, err := w.CreateApartment(ctx, in); err != nil {
					return report, fmt.Errorf("apartment %q: %w", sa.ApartmentNo, err)
				}
				report.Apartments++
			}
		}
	}
	return report, nil
}

func SeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load districts, buildings and apartments from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			seed, err := ParseSeed(file)
			if err != nil {
				return err
			}

			container, logger, err := bootstrap(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer container.Close()

			report, err := Seed(cmd.Context(), container.Gateway(), seed)
			logger.Info("seed finished",
				zap.Int("districts", report.Districts),
				zap.Int("buildings", report.Buildings),
				zap.Int("apartments", report.Apartments),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d districts, %d buildings, %d apartments\n",
				report.Districts, report.Buildings, report.Apartments)
			return nil
		},
	}
}
