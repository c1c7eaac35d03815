package stubs

import (
	"time"

	"stockgraph/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type EntityStub struct {
	entity entities.Entity
}

// NewItemStub constrói um item de estoque com os blocos de medição já na
// forma canônica.
func NewItemStub() EntityStub {
	now := time.Now().UTC()

	entity := entities.Entity{
		ID:   gofakeit.UUID(),
		Type: entities.EntityTypeItem,
		Properties: entities.Document{
			"name":              gofakeit.ProductName(),
			"isInventoryItem":   true,
			"inventoryQuantity": float64(gofakeit.Number(1, 100)),
			"tracking":          entities.Document{"measurement": "quantity", "amount": float64(gofakeit.Number(1, 50)), "unit": ""},
			"price":             entities.Document{"measurement": "quantity", "amount": gofakeit.Price(1, 500), "unit": ""},
			"cost":              entities.Document{"measurement": "quantity", "amount": gofakeit.Price(1, 200), "unit": ""},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return EntityStub{entity: entity}
}

func NewPurchaseStub() EntityStub {
	now := time.Now().UTC()

	entity := entities.Entity{
		ID:   gofakeit.UUID(),
		Type: entities.EntityTypePurchase,
		Properties: entities.Document{
			"supplier":        gofakeit.Company(),
			"purchaseDate":    now.Format("2006-01-02"),
			"receivingStatus": "pending",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return EntityStub{entity: entity}
}

func NewSaleStub() EntityStub {
	now := time.Now().UTC()

	entity := entities.Entity{
		ID:   gofakeit.UUID(),
		Type: entities.EntityTypeSale,
		Properties: entities.Document{
			"customer": gofakeit.Name(),
			"saleDate": now.Format("2006-01-02"),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return EntityStub{entity: entity}
}

func NewAssetStub() EntityStub {
	now := time.Now().UTC()

	entity := entities.Entity{
		ID:   gofakeit.UUID(),
		Type: entities.EntityTypeAsset,
		Properties: entities.Document{
			"name":            gofakeit.ProductName(),
			"category":        "Equipment",
			"status":          "active",
			"isInventoryItem": false,
			"initialCost":     gofakeit.Price(100, 5000),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return EntityStub{entity: entity}
}

func (es EntityStub) WithID(id string) EntityStub {
	es.entity.ID = id
	return es
}

func (es EntityStub) WithProperty(key string, value any) EntityStub {
	props := make(entities.Document, len(es.entity.Properties)+1)
	for k, v := range es.entity.Properties {
		props[k] = v
	}
	props[key] = value
	es.entity.Properties = props
	return es
}

func (es EntityStub) WithProperties(properties entities.Document) EntityStub {
	es.entity.Properties = properties
	return es
}

func (es EntityStub) Get() entities.Entity {
	return es.entity
}

// Document devolve o payload com o id embutido, pronto para o Create do
// repositório.
func (es EntityStub) Document() entities.Document {
	doc := make(entities.Document, len(es.entity.Properties)+1)
	for k, v := range es.entity.Properties {
		doc[k] = v
	}
	doc["id"] = es.entity.ID
	return doc
}
