package main

import (
	"fmt"
	"log"

	"github.com/grupoheroica/calidadrecintos/internal/config"
	"github.com/grupoheroica/calidadrecintos/internal/database"
	"github.com/grupoheroica/calidadrecintos/internal/models"
)

// Seeds every recinto store with a starter catalog so a fresh install has
// areas and checklists to review against.

var areas = []struct {
	nombre      string
	descripcion string
	parametros  []string
}{
	{
		nombre:      "Cocina Principal",
		descripcion: "Zona de preparación de alimentos",
		parametros: []string{
			"Limpieza de superficies",
			"Temperatura de refrigeradores",
			"Señalización de seguridad",
			"Estado de extintores",
		},
	},
	{
		nombre:      "Baños Planta 1",
		descripcion: "Baterías sanitarias del primer nivel",
		parametros: []string{
			"Limpieza general",
			"Disponibilidad de insumos",
			"Funcionamiento de grifería",
		},
	},
	{
		nombre:      "Salón de Eventos A",
		descripcion: "Salón principal",
		parametros: []string{
			"Estado de sillas y mesas",
			"Iluminación",
			"Climatización",
			"Limpieza de pisos",
			"Sonido y audiovisuales",
		},
	},
}

func main() {
	fmt.Println("🌱 Catálogo inicial de calidad")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	db, err := database.NewManager(cfg.Database, cfg.Recintos)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.Evento{}, &models.Area{}, &models.Parametro{}, &models.Revision{}, &models.Usuario{}, &models.Reporte{}); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	for _, code := range db.Recintos() {
		tenant, err := db.ForRecinto(code)
		if err != nil {
			log.Fatalf("❌ Recinto %s: %v", code, err)
		}

		var count int64
		tenant.Model(&models.Area{}).Count(&count)
		if count > 0 {
			fmt.Printf("⚠️  Recinto %s already has %d areas, skipping\n", code, count)
			continue
		}

		for _, a := range areas {
			area := models.Area{Nombre: a.nombre, Descripcion: a.descripcion, Estado: models.EstadoActivo}
			if err := tenant.Create(&area).Error; err != nil {
				log.Fatalf("❌ Recinto %s: creating area: %v", code, err)
			}
			for _, nombre := range a.parametros {
				p := models.Parametro{IDArea: area.ID, Nombre: nombre, Estado: models.EstadoActivo}
				if err := tenant.Create(&p).Error; err != nil {
					log.Fatalf("❌ Recinto %s: creating parametro: %v", code, err)
				}
			}
		}
		fmt.Printf("✅ Recinto %s seeded with %d areas\n", code, len(areas))
	}

	fmt.Println("✅ Done")
}
