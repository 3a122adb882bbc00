package service_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	historymodels "famtree/internal/history/models"
	"famtree/internal/person/models"
	"famtree/internal/projection"
	id "famtree/pkg/domain"
	dErrors "famtree/pkg/domain-errors"
	"famtree/pkg/testutil"
)

func (s *GraphSuite) addRelative(anchor id.PersonID, kind models.RelativeKind, firstName string, gender models.Gender, opts models.SelectionOptions) projection.PersonView {
	res, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: firstName, LastName: "Kowalski", Gender: gender},
		Kind:       kind,
		AnchorID:   anchor,
		Options:    opts,
	})
	s.Require().NoError(err)
	s.Equal(res.Person.ID, res.Touched[0])
	return res.Person
}

func (s *GraphSuite) link(a, b id.PersonID, kind models.RelationType) {
	_, err := s.svc.AddRelation(s.ctx, s.owner, a, b, kind, "")
	s.Require().NoError(err)
}

func countActions(entries []historymodels.Entry) map[historymodels.Action]int {
	out := map[historymodels.Action]int{}
	for _, e := range entries {
		out[e.Action]++
	}
	return out
}

func (s *GraphSuite) TestAddFather() {
	jan := s.create("Jan", models.GenderMale)
	ola := s.create("Ola", models.GenderFemale)
	ewa := s.create("Ewa", models.GenderFemale)
	s.link(jan.ID, ola.ID, models.RelationSiblings)
	s.link(ewa.ID, jan.ID, models.RelationChildren)
	logged := len(s.entries())

	testutil.When(s.T(), "a father is added to a person with one unpartnered parent", func(t *testing.T) {
		adam := s.addRelative(jan.ID, models.RelativeFather, "Adam", "", models.SelectionOptions{})

		testutil.Then(t, "he parents the anchor and its siblings", func(t *testing.T) {
			father := s.person(adam.ID)
			s.Equal(models.GenderMale, father.Gender)
			s.ElementsMatch([]id.PersonID{jan.ID, ola.ID}, father.Children)
			s.Contains(s.person(ola.ID).Parents, adam.ID)
		})
		testutil.Then(t, "he is paired with the existing parent", func(t *testing.T) {
			s.True(s.person(ewa.ID).HasRelation(models.RelationSpouses, adam.ID))
		})
		testutil.Then(t, "one create and an update per touched neighbour are logged", func(t *testing.T) {
			added := s.entries()[:len(s.entries())-logged]
			counts := countActions(added)
			s.Equal(1, counts[historymodels.ActionCreate])
			s.Equal(3, counts[historymodels.ActionUpdate])
			for _, e := range added {
				if e.Action == historymodels.ActionUpdate {
					s.NotEmpty(e.Changes)
				}
			}
		})
		s.requireConsistent()
	})
}

func (s *GraphSuite) TestAddMotherWithoutSiblings() {
	jan := s.create("Jan", models.GenderMale)
	ola := s.create("Ola", models.GenderFemale)
	s.link(jan.ID, ola.ID, models.RelationSiblings)

	ewa := s.addRelative(jan.ID, models.RelativeMother, "Ewa", "", models.SelectionOptions{Mode: models.SelectNone})
	s.Equal([]id.PersonID{jan.ID}, s.person(ewa.ID).Children)
	s.Empty(s.person(ola.ID).Parents)

	_, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: "Adam", Gender: models.GenderMale},
		Kind:       models.RelativeMother,
		AnchorID:   jan.ID,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *GraphSuite) TestAddSibling() {
	jan := s.create("Jan", models.GenderMale)
	ola := s.create("Ola", models.GenderFemale)
	adam := s.create("Adam", models.GenderMale)
	ewa := s.create("Ewa", models.GenderFemale)
	s.link(adam.ID, ewa.ID, models.RelationSpouses)
	for _, child := range []id.PersonID{jan.ID, ola.ID} {
		s.link(adam.ID, child, models.RelationChildren)
		s.link(ewa.ID, child, models.RelationChildren)
	}
	s.link(jan.ID, ola.ID, models.RelationSiblings)

	piotr := s.addRelative(jan.ID, models.RelativeSibling, "Piotr", models.GenderMale, models.SelectionOptions{})
	p := s.person(piotr.ID)
	s.ElementsMatch([]id.PersonID{adam.ID, ewa.ID}, p.Parents)
	s.ElementsMatch([]id.PersonID{jan.ID, ola.ID}, p.Siblings)
	s.Contains(s.person(ola.ID).Siblings, piotr.ID)
	s.requireConsistent()

	half := s.addRelative(jan.ID, models.RelativeSibling, "Zofia", models.GenderFemale, models.SelectionOptions{
		Mode:        models.SelectSelected,
		SelectedIDs: []id.PersonID{adam.ID},
	})
	s.Equal([]id.PersonID{adam.ID}, s.person(half.ID).Parents)
	s.Len(s.person(half.ID).Siblings, 3)
	s.requireConsistent()

	_, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: "Kasia", Gender: models.GenderFemale},
		Kind:       models.RelativeSibling,
		AnchorID:   jan.ID,
		Options:    models.SelectionOptions{Mode: models.SelectSelected, SelectedIDs: []id.PersonID{ola.ID}},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: "Kasia"},
		Kind:       models.RelativeSibling,
		AnchorID:   jan.ID,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "sibling gender is required")
}

func (s *GraphSuite) TestAddChildSynthesizesPlaceholder() {
	anna := s.create("Anna", models.GenderFemale)
	logged := len(s.entries())

	res, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: "Piotr"},
		Kind:       models.RelativeSon,
		AnchorID:   anna.ID,
	})
	s.Require().NoError(err)
	s.Require().Len(res.Placeholders, 1)
	ph := res.Placeholders[0]
	s.Equal("Unknown", ph.FirstName)
	s.Equal(models.GenderMale, ph.Gender)
	s.ElementsMatch([]id.PersonID{res.Person.ID, ph.ID, anna.ID}, res.Touched)

	child := s.person(res.Person.ID)
	s.ElementsMatch([]id.PersonID{anna.ID, ph.ID}, child.Parents)
	s.True(s.person(anna.ID).HasRelation(models.RelationSpouses, ph.ID))
	s.requireConsistent()

	counts := countActions(s.entries()[:len(s.entries())-logged])
	s.Equal(2, counts[historymodels.ActionCreate])
	s.Equal(1, counts[historymodels.ActionUpdate])
}

func (s *GraphSuite) TestAddChildWithoutPlaceholder() {
	anna := s.create("Anna", models.GenderFemale)
	alex := s.create("Alex", models.GenderNonBinary)

	zofia := s.addRelative(anna.ID, models.RelativeDaughter, "Zofia", "", models.SelectionOptions{Mode: models.SelectNone})
	s.Equal([]id.PersonID{anna.ID}, s.person(zofia.ID).Parents)
	s.Empty(s.person(anna.ID).Spouses)

	kid := s.addRelative(alex.ID, models.RelativeSon, "Kuba", "", models.SelectionOptions{})
	s.Equal([]id.PersonID{alex.ID}, s.person(kid.ID).Parents)
	s.Empty(s.person(alex.ID).Spouses)
}

func (s *GraphSuite) TestAddChildSharesParentsAndSiblings() {
	jan := s.create("Jan", models.GenderMale)
	anna := s.create("Anna", models.GenderFemale)
	_, err := s.svc.AddRelation(s.ctx, s.owner, jan.ID, anna.ID, models.RelationSpouses, "2001-06-30")
	s.Require().NoError(err)

	piotr := s.addRelative(jan.ID, models.RelativeSon, "Piotr", "", models.SelectionOptions{})
	s.ElementsMatch([]id.PersonID{jan.ID, anna.ID}, s.person(piotr.ID).Parents)

	zofia := s.addRelative(anna.ID, models.RelativeDaughter, "Zofia", "", models.SelectionOptions{})
	s.ElementsMatch([]id.PersonID{jan.ID, anna.ID}, s.person(zofia.ID).Parents)
	s.Equal([]id.PersonID{piotr.ID}, s.person(zofia.ID).Siblings)
	s.requireConsistent()
}

func (s *GraphSuite) TestAddPartner() {
	jan := s.create("Jan", models.GenderMale)
	ola := s.create("Ola", models.GenderFemale)
	kuba := s.create("Kuba", models.GenderMale)
	s.link(jan.ID, ola.ID, models.RelationChildren)
	s.link(jan.ID, kuba.ID, models.RelationChildren)

	res, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes:  models.Attributes{FirstName: "Anna", Gender: models.GenderFemale},
		Kind:        models.RelativePartner,
		AnchorID:    jan.ID,
		WeddingDate: "2005-05-05",
		Options:     models.SelectionOptions{Mode: models.SelectSelected, SelectedIDs: []id.PersonID{ola.ID}},
	})
	s.Require().NoError(err)
	anna := s.person(res.Person.ID)
	link, ok := anna.Spouse(jan.ID)
	s.Require().True(ok)
	s.Equal("2005-05-05", link.WeddingDate)
	s.Equal([]id.PersonID{ola.ID}, anna.Children)
	s.Equal([]id.PersonID{jan.ID}, s.person(kuba.ID).Parents)

	second := s.addRelative(jan.ID, models.RelativePartner, "Maria", models.GenderFemale, models.SelectionOptions{})
	s.Empty(s.person(second.ID).Children, "partners do not parent existing children by default")
	s.requireConsistent()
}

func (s *GraphSuite) TestAddRelativeErrors() {
	_, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes: models.Attributes{FirstName: "Adam"},
		Kind:       models.RelativeFather,
		AnchorID:   id.NewPersonID(),
	})
	s.True(dErrors.HasCode(err, dErrors.CodePersonNotFound))

	jan := s.create("Jan", models.GenderMale)
	_, err = s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
		Attributes:  models.Attributes{FirstName: "Adam"},
		Kind:        models.RelativeFather,
		AnchorID:    jan.ID,
		WeddingDate: "2001-01-01",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Len(s.entries(), 1)
}

// TestInvariantsHoldUnderRandomOperations drives the engine with a seeded
// random mix of operations and checks the bidirectional invariant after
// every step. Rejected operations are expected and ignored.
func (s *GraphSuite) TestInvariantsHoldUnderRandomOperations() {
	rng := rand.New(rand.NewPCG(42, 7))
	genders := []models.Gender{models.GenderMale, models.GenderFemale, models.GenderNonBinary}
	relatives := []models.RelativeKind{
		models.RelativeFather, models.RelativeMother, models.RelativeSibling,
		models.RelativeSon, models.RelativeDaughter, models.RelativePartner,
	}
	kinds := models.RelationTypes()
	var ids []id.PersonID

	pick := func() id.PersonID { return ids[rng.IntN(len(ids))] }
	for step := 0; step < 300; step++ {
		op := rng.IntN(6)
		if len(ids) < 2 {
			op = 0
		}
		switch op {
		case 0:
			v, err := s.svc.CreatePerson(s.ctx, s.owner, models.Attributes{Gender: genders[rng.IntN(len(genders))]})
			s.Require().NoError(err)
			ids = append(ids, v.ID)
		case 1, 2:
			_, _ = s.svc.AddRelation(s.ctx, s.owner, pick(), pick(), kinds[rng.IntN(len(kinds))], "")
		case 3:
			_, _ = s.svc.DeleteRelation(s.ctx, s.owner, pick(), pick(), "")
		case 4:
			res, err := s.svc.AddPersonWithRelationship(s.ctx, s.owner, models.AddRelativeRequest{
				Attributes: models.Attributes{Gender: genders[rng.IntN(len(genders))]},
				Kind:       relatives[rng.IntN(len(relatives))],
				AnchorID:   pick(),
			})
			if err == nil {
				ids = append(ids, res.Person.ID)
				for _, ph := range res.Placeholders {
					ids = append(ids, ph.ID)
				}
			}
		case 5:
			target := pick()
			_, err := s.svc.DeletePerson(s.ctx, s.owner, target)
			s.Require().NoError(err)
			ids = slices.DeleteFunc(ids, func(p id.PersonID) bool { return p == target })
		}

		c, err := s.svc.Collection(s.ctx, s.owner)
		s.Require().NoError(err)
		s.Require().Empty(models.CheckInvariants(c), "step %d op %d", step, op)
	}
}
