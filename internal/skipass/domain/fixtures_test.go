package domain

// samplePasses es un dataset pequeño con todas las combinaciones relevantes.
func samplePasses() []SkiPass {
	return []SkiPass{
		{ID: 1, Saison: SaisonHiver, Prix: 100, Age: 20, Niveau: NiveauNovice, Compte: true, Passe: PasseSimple},
		{ID: 2, Saison: SaisonHiver, Prix: 300, Age: 40, Niveau: NiveauPro, Compte: false, Passe: PasseIllimite},
		{ID: 3, Saison: SaisonEte, Prix: 150, Age: 25, Niveau: NiveauMoyen, Compte: true, Passe: PasseDouble},
		{ID: 4, Saison: SaisonPrintemps, Prix: 80, Age: 12, Niveau: NiveauNovice, Compte: false, Passe: PasseSimple},
		{ID: 5, Saison: SaisonAutomne, Prix: 220.5, Age: 33, Niveau: NiveauPro, Compte: true, Passe: PasseDouble},
		{ID: 6, Saison: SaisonHiver, Prix: 410, Age: 58, Niveau: NiveauMoyen, Compte: true, Passe: PasseIllimite},
		{ID: 7, Saison: SaisonEte, Prix: 95, Age: 19, Niveau: NiveauNovice, Compte: false, Passe: PasseSimple},
	}
}

// openFilter no restringe nada sobre samplePasses.
func openFilter() FilterState {
	return NewFilterState(ComputeLimits(samplePasses()))
}

// manyPasses genera n registros con ids consecutivos.
func manyPasses(n int) []SkiPass {
	out := make([]SkiPass, n)
	for i := range out {
		out[i] = SkiPass{ID: i + 1, Saison: SaisonHiver, Prix: float64(10 * (i + 1)), Age: 20 + i%30, Niveau: NiveauMoyen, Passe: PasseSimple}
	}
	return out
}
