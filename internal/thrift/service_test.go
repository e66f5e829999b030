package thrift

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	thriftDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/thrift"
)

func TestThrift(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Thrift Module Suite")
}

type mockThriftRepository struct {
	packages      map[int64]*thriftDatamodel.Package
	subscriptions []*thriftDatamodel.Subscription
	nextID        int64

	subscriptionError error
	listError         error
}

func newMockThriftRepository() *mockThriftRepository {
	return &mockThriftRepository{
		packages: make(map[int64]*thriftDatamodel.Package),
		nextID:   1,
	}
}

func (m *mockThriftRepository) addPackage(name string, price, contribution int64, active bool) *thriftDatamodel.Package {
	p := &thriftDatamodel.Package{
		ID:           m.nextID,
		Name:         name,
		Price:        price,
		Contribution: contribution,
		Interval:     "weekly",
		IsActive:     active,
	}
	m.nextID++
	m.packages[p.ID] = p
	return p
}

func (m *mockThriftRepository) GetAllPackages() ([]*thriftDatamodel.Package, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var all []*thriftDatamodel.Package
	for _, p := range m.packages {
		all = append(all, p)
	}
	return all, nil
}

func (m *mockThriftRepository) GetPackageByID(id int64) (*thriftDatamodel.Package, error) {
	return m.packages[id], nil
}

func (m *mockThriftRepository) CreatePackage(p *thriftDatamodel.Package) error {
	for _, existing := range m.packages {
		if existing.Name == p.Name {
			return ErrPackageNameTaken
		}
	}
	p.ID = m.nextID
	m.nextID++
	m.packages[p.ID] = p
	return nil
}

func (m *mockThriftRepository) UpdatePackage(p *thriftDatamodel.Package) error {
	m.packages[p.ID] = p
	return nil
}

func (m *mockThriftRepository) CreateSubscription(sub *thriftDatamodel.Subscription) error {
	sub.ID = m.nextID
	m.nextID++
	m.subscriptions = append(m.subscriptions, sub)
	return nil
}

func (m *mockThriftRepository) DeactivateSubscriptions(userID int64) error {
	for _, sub := range m.subscriptions {
		if sub.UserID == userID {
			sub.Status = string(SubscriptionInactive)
		}
	}
	return nil
}

func (m *mockThriftRepository) ActiveSubscription(userID int64) (*thriftDatamodel.Subscription, error) {
	if m.subscriptionError != nil {
		return nil, m.subscriptionError
	}
	for _, sub := range m.subscriptions {
		if sub.UserID == userID && sub.Status == string(SubscriptionActive) {
			return sub, nil
		}
	}
	return nil, nil
}

var _ = ginkgo.Describe("Thrift Service", func() {
	var (
		repo    *mockThriftRepository
		service *Service
	)

	ginkgo.BeforeEach(func() {
		repo = newMockThriftRepository()
		service = NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("ListPackages", func() {
		ginkgo.It("should hide inactive packages", func() {
			repo.addPackage("starter", 2500, 1000, true)
			repo.addPackage("retired", 1000, 500, false)

			packages, err := service.ListPackages()

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(packages).To(gomega.HaveLen(1))
			gomega.Expect(packages[0].Name).To(gomega.Equal("starter"))
		})
	})

	ginkgo.Describe("CreatePackage", func() {
		ginkgo.It("should create an active package defaulting to a weekly interval", func() {
			pkg, err := service.CreatePackage(&CreatePackageDTO{
				Name:         "gold",
				Price:        10000,
				Contribution: 5000,
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(pkg.IsActive).To(gomega.BeTrue())
			gomega.Expect(pkg.Interval).To(gomega.Equal("weekly"))
		})

		ginkgo.It("should reject a duplicate package name", func() {
			repo.addPackage("gold", 10000, 5000, true)

			_, err := service.CreatePackage(&CreatePackageDTO{
				Name:         "gold",
				Price:        10000,
				Contribution: 5000,
			})
			gomega.Expect(err).To(gomega.Equal(ErrPackageNameTaken))
		})

		ginkgo.It("should reject an unknown interval", func() {
			_, err := service.CreatePackage(&CreatePackageDTO{
				Name:         "gold",
				Price:        10000,
				Contribution: 5000,
				Interval:     "daily",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("UpdatePackage", func() {
		ginkgo.It("should patch only the provided fields", func() {
			pkg := repo.addPackage("starter", 2500, 1000, true)
			newPrice := int64(3000)

			updated, err := service.UpdatePackage(pkg.ID, &UpdatePackageDTO{Price: &newPrice})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Price).To(gomega.Equal(int64(3000)))
			gomega.Expect(updated.Name).To(gomega.Equal("starter"))
			gomega.Expect(updated.Contribution).To(gomega.Equal(int64(1000)))
		})

		ginkgo.It("should deactivate a package", func() {
			pkg := repo.addPackage("starter", 2500, 1000, true)
			inactive := false

			updated, err := service.UpdatePackage(pkg.ID, &UpdatePackageDTO{IsActive: &inactive})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.IsActive).To(gomega.BeFalse())
		})

		ginkgo.It("should return ErrPackageNotFound for an unknown id", func() {
			newPrice := int64(3000)
			_, err := service.UpdatePackage(404, &UpdatePackageDTO{Price: &newPrice})
			gomega.Expect(err).To(gomega.Equal(ErrPackageNotFound))
		})
	})

	ginkgo.Describe("Subscribe", func() {
		ginkgo.It("should subscribe the user to an active package", func() {
			pkg := repo.addPackage("starter", 2500, 1000, true)

			sub, err := service.Subscribe(1, pkg.ID)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(sub.Status).To(gomega.Equal(SubscriptionActive))
			gomega.Expect(sub.Package).NotTo(gomega.BeNil())
			gomega.Expect(sub.Package.Name).To(gomega.Equal("starter"))
		})

		ginkgo.It("should deactivate the previous subscription first", func() {
			starter := repo.addPackage("starter", 2500, 1000, true)
			premium := repo.addPackage("premium", 10000, 10000, true)

			_, err := service.Subscribe(1, starter.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Subscribe(1, premium.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			active, err := service.ActiveSubscription(1)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(active.PackageID).To(gomega.Equal(premium.ID))

			activeCount := 0
			for _, sub := range repo.subscriptions {
				if sub.Status == string(SubscriptionActive) {
					activeCount++
				}
			}
			gomega.Expect(activeCount).To(gomega.Equal(1))
		})

		ginkgo.It("should refuse an inactive package", func() {
			pkg := repo.addPackage("retired", 1000, 500, false)

			_, err := service.Subscribe(1, pkg.ID)
			gomega.Expect(err).To(gomega.Equal(ErrPackageInactive))
		})

		ginkgo.It("should refuse an unknown package", func() {
			_, err := service.Subscribe(1, 404)
			gomega.Expect(err).To(gomega.Equal(ErrPackageNotFound))
		})
	})

	ginkgo.Describe("RegistrationFee", func() {
		ginkgo.It("should use the active package price", func() {
			pkg := repo.addPackage("premium", 10000, 10000, true)
			_, err := service.Subscribe(1, pkg.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(service.RegistrationFee(1)).To(gomega.Equal(int64(10000)))
		})

		ginkgo.It("should fall back to the default fee without a subscription", func() {
			gomega.Expect(service.RegistrationFee(1)).To(gomega.Equal(DefaultRegistrationFee))
		})

		ginkgo.It("should fall back when the subscription lookup fails", func() {
			repo.subscriptionError = errors.New("db down")
			gomega.Expect(service.RegistrationFee(1)).To(gomega.Equal(DefaultRegistrationFee))
		})
	})
})
