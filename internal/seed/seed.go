package seed

import (
	"context"
	"time"

	"github.com/agro-backoffice/internal/constants"
	"github.com/agro-backoffice/internal/logger"
	"github.com/agro-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Summary 演示数据写入结果
type Summary struct {
	Companies  int `json:"companies"`
	Fields     int `json:"fields"`
	Products   int `json:"products"`
	Plans      int `json:"plans"`
	Treatments int `json:"treatments"`
}

type demoField struct {
	name    string
	company string
	culture string
	area    string
	rates   map[string]string
}

type demoProduct struct {
	name         string
	manufacturer string
	unit         string
	container    string
}

var demoCompanies = []string{"Агро Північ", "Агро Південь"}

var demoPayers = []string{"ТОВ Агро Північ", "ФГ Колос"}

var demoCultures = []string{"Пшениця озима", "Соняшник", "Кукурудза"}

var demoProducts = []demoProduct{
	{name: "Гербіцид Раундап", manufacturer: "Bayer", unit: "л", container: "Каністра 20 л"},
	{name: "Фунгіцид Амістар", manufacturer: "Syngenta", unit: "л", container: "5 л"},
	{name: "Інсектицид Карате", manufacturer: "Syngenta", unit: "л", container: "Каністра 1 л"},
	{name: "Карбамід", manufacturer: "Azot", unit: "кг", container: "Біг-бег 500 кг"},
}

var demoFields = []demoField{
	{name: "П-01", company: "Агро Північ", culture: "Пшениця озима", area: "124.5", rates: map[string]string{"Гербіцид Раундап": "2.5", "Фунгіцид Амістар": "0.75", "Карбамід": "150"}},
	{name: "П-02", company: "Агро Північ", culture: "Соняшник", area: "86", rates: map[string]string{"Гербіцид Раундап": "3", "Інсектицид Карате": "0.2"}},
	{name: "Пд-01", company: "Агро Південь", culture: "Кукурудза", area: "210.3", rates: map[string]string{"Гербіцид Раундап": "2", "Карбамід": "200"}},
}

// Demo 写入演示数据（幂等），计划默认已审批
func Demo(ctx context.Context, db *gorm.DB, year int) (*Summary, error) {
	summary := &Summary{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		companyIDs := map[string]uint{}
		for _, name := range demoCompanies {
			company := models.Company{Name: name, IsActive: true}
			if err := tx.Where(models.Company{Name: name}).FirstOrCreate(&company).Error; err != nil {
				return err
			}
			companyIDs[name] = company.ID
			summary.Companies++
		}
		for _, name := range demoPayers {
			payer := models.Payer{Name: name}
			if err := tx.Where(models.Payer{Name: name}).FirstOrCreate(&payer).Error; err != nil {
				return err
			}
		}
		for name, companyID := range companyIDs {
			id := companyID
			warehouse := models.Warehouse{Name: "Склад " + name, CompanyID: &id}
			if err := tx.Where(models.Warehouse{Name: warehouse.Name}).FirstOrCreate(&warehouse).Error; err != nil {
				return err
			}
		}
		cultureIDs := map[string]uint{}
		for _, name := range demoCultures {
			culture := models.Culture{Name: name}
			if err := tx.Where(models.Culture{Name: name}).FirstOrCreate(&culture).Error; err != nil {
				return err
			}
			cultureIDs[name] = culture.ID
		}

		productIDs := map[string]uint{}
		for _, item := range demoProducts {
			manufacturer := models.Manufacturer{Name: item.manufacturer}
			if err := tx.Where(models.Manufacturer{Name: item.manufacturer}).FirstOrCreate(&manufacturer).Error; err != nil {
				return err
			}
			unit := models.Unit{Name: item.unit, ShortName: item.unit}
			if err := tx.Where(models.Unit{Name: item.unit}).FirstOrCreate(&unit).Error; err != nil {
				return err
			}
			product := models.Product{
				Name:           item.name,
				UnitID:         &unit.ID,
				ManufacturerID: &manufacturer.ID,
				Container:      item.container,
				IsActive:       true,
			}
			if err := tx.Where(models.Product{Name: item.name}).FirstOrCreate(&product).Error; err != nil {
				return err
			}
			productIDs[item.name] = product.ID
			summary.Products++
		}

		now := time.Now()
		for _, item := range demoFields {
			companyID := companyIDs[item.company]
			cultureID := cultureIDs[item.culture]
			field := models.Field{
				Name:      item.name,
				CompanyID: &companyID,
				CultureID: &cultureID,
				Area:      decimal.NewNullDecimal(decimal.RequireFromString(item.area)),
			}
			if err := tx.Where(models.Field{Name: item.name}).FirstOrCreate(&field).Error; err != nil {
				return err
			}
			summary.Fields++

			plan := models.Plan{
				FieldID:    field.ID,
				Year:       year,
				Status:     constants.PlanStatusApproved,
				IsApproved: true,
				ApprovedAt: &now,
			}
			if err := tx.Where(models.Plan{FieldID: field.ID, Year: year}).FirstOrCreate(&plan).Error; err != nil {
				return err
			}
			summary.Plans++

			for productName, rate := range item.rates {
				treatment := models.Treatment{
					PlanID:    plan.ID,
					ProductID: productIDs[productName],
					Rate:      decimal.RequireFromString(rate),
				}
				if err := tx.Where(models.Treatment{PlanID: plan.ID, ProductID: treatment.ProductID}).FirstOrCreate(&treatment).Error; err != nil {
					return err
				}
				summary.Treatments++
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("seed_demo_failed", "error", err)
		return nil, err
	}
	logger.Infow("seed_demo_done",
		"companies", summary.Companies,
		"fields", summary.Fields,
		"products", summary.Products,
		"plans", summary.Plans,
		"treatments", summary.Treatments,
	)
	return summary, nil
}
