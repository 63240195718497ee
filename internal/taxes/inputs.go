package taxes

import (
	"fmt"

	"github.com/incidence-dev/incidence/internal/engine"
	"github.com/incidence-dev/incidence/internal/naming"
)

// Product codes of the energy expenditures.
const (
	CodeElectricity = "04.5.1.1.1"
	CodeTownGas     = "04.5.2.1.1"
	CodeHeatingOil  = "04.5.3.1.1"
	CodeDiesel      = "07.2.2.1.1"
	CodeGasoline    = "07.2.2.2.1"
)

// Household inputs read from the survey. Absent columns evaluate to zero.
var inputs = []struct{ name, label string }{
	{"pondmen", "Pondération du ménage"},
	{"rev_disponible", "Revenu disponible du ménage"},
	{"ocde10", "Nombre d'unités de consommation (échelle OCDE)"},
	{"depenses_tot", "Dépenses totales de consommation"},
	{"depenses_gaz_variables", "Dépenses en gaz, part variable"},
	{"depenses_gaz_tarif_fixe", "Dépenses en gaz, abonnement"},
	{"depenses_gaz_prix_unitaire", "Prix unitaire du gaz payé par le ménage"},
	{"depenses_gaz_liquefie", "Dépenses en gaz liquéfié"},
	{"depenses_electricite_variables", "Dépenses en électricité, part variable"},
	{"depenses_electricite_tarif_fixe", "Dépenses en électricité, abonnement"},
	{"depenses_electricite_prix_unitaire", "Prix unitaire de l'électricité payé par le ménage"},
	{"depenses_combustibles_solides", "Dépenses en combustibles solides"},
	{"depenses_energie_thermique", "Dépenses en énergie thermique"},
	{"tarifs_sociaux_gaz", "Tarifs sociaux du gaz"},
	{"tarifs_sociaux_electricite", "Tarifs sociaux de l'électricité"},
}

// energyExpenditures map an energy expenditure variable to its product code.
var energyExpenditures = []struct{ name, code, label string }{
	{"depenses_diesel", CodeDiesel, "Dépenses en gazole"},
	{"depenses_essence", CodeGasoline, "Dépenses en essence"},
	{"depenses_electricite", CodeElectricity, "Dépenses en électricité"},
	{"depenses_gaz_ville", CodeTownGas, "Dépenses en gaz de ville"},
	{"depenses_combustibles_liquides", CodeHeatingOil, "Dépenses en combustibles liquides"},
}

func registerInputs(system *engine.System) error {
	for _, in := range inputs {
		if err := addInput(system, in.name, in.label); err != nil {
			return err
		}
	}
	for _, e := range energyExpenditures {
		column := naming.ProductColumn(e.code)
		if err := addInput(system, column, "Dépenses TTC: "+e.code); err != nil {
			return err
		}
		if err := system.Add(engine.Always(e.name, e.label, copyOf(column))); err != nil {
			return fmt.Errorf("registering %s: %w", e.name, err)
		}
	}
	return nil
}

func addInput(system *engine.System, name, label string) error {
	if system.Has(name) {
		return nil
	}
	if err := system.Add(engine.Variable{Name: name, Label: label}); err != nil {
		return fmt.Errorf("registering %s: %w", name, err)
	}
	return nil
}

func copyOf(name string) engine.Formula {
	return func(sim *engine.Simulation, _ int) ([]float64, error) {
		return sim.Sum(name)
	}
}
