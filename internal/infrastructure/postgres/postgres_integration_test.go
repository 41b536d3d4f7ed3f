//go:build integration

package postgres_test

import (
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"photoshare/backend/internal/apperror"
	"photoshare/backend/internal/domain/card"
	"photoshare/backend/internal/domain/ref"
	"photoshare/backend/internal/domain/user"
	"photoshare/backend/internal/infrastructure/postgres"
)

func seedUser(email string) *user.User {
	u := &user.User{
		ID:           ref.New(),
		Name:         "Jacques",
		About:        "Explorer",
		Avatar:       "https://example.com/a.png",
		Email:        email,
		PasswordHash: "hash",
	}
	Expect(env.users.Create(env.ctx, u)).To(Succeed())
	return u
}

func seedCard(owner string) *card.Card {
	c := &card.Card{
		ID:        ref.New(),
		Name:      "Lake",
		Link:      "https://example.com/l.jpg",
		Owner:     owner,
		Likes:     []string{},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	Expect(env.cards.Create(env.ctx, c)).To(Succeed())
	return c
}

var _ = Describe("UserRepository", func() {
	BeforeEach(truncate)

	It("rejects a second registration with the same email", func() {
		seedUser("a@x.io")

		err := env.users.Create(env.ctx, &user.User{
			ID: ref.New(), Name: "Other", About: "Other", Avatar: "https://example.com/b.png",
			Email: "a@x.io", PasswordHash: "hash",
		})
		Expect(err).To(BeIdenticalTo(user.ErrEmailExists))
	})

	It("keeps the unchanged half of a partial profile update", func() {
		u := seedUser("a@x.io")
		about := "Oceanographer"

		got, err := env.users.UpdateProfile(env.ctx, u.ID, nil, &about)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("Jacques"))
		Expect(got.About).To(Equal("Oceanographer"))
	})

	It("surfaces stored constraint violations as bad input", func() {
		u := seedUser("a@x.io")
		long := "this name is far longer than thirty characters"

		_, err := env.users.UpdateProfile(env.ctx, u.ID, &long, nil)
		Expect(err).To(HaveOccurred())
		kind, ok := postgres.Reclassify(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(apperror.BadInput))
	})
})

var _ = Describe("CardRepository", func() {
	BeforeEach(truncate)

	It("round-trips a card", func() {
		owner := seedUser("a@x.io")
		c := seedCard(owner.ID)

		got, err := env.cards.GetByID(env.ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Owner).To(Equal(owner.ID))
		Expect(got.Likes).To(BeEmpty())
		Expect(got.CreatedAt.Equal(c.CreatedAt)).To(BeTrue())
	})

	It("treats likes as a set", func() {
		owner := seedUser("a@x.io")
		c := seedCard(owner.ID)

		_, err := env.cards.AddLike(env.ctx, c.ID, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		got, err := env.cards.AddLike(env.ctx, c.ID, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Likes).To(Equal([]string{owner.ID}))

		got, err = env.cards.RemoveLike(env.ctx, c.ID, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Likes).To(BeEmpty())
		got, err = env.cards.RemoveLike(env.ctx, c.ID, owner.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Likes).To(BeEmpty())
	})

	It("never records a concurrent duplicate like", func() {
		owner := seedUser("a@x.io")
		c := seedCard(owner.ID)

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				_, err := env.cards.AddLike(env.ctx, c.ID, owner.ID)
				Expect(err).NotTo(HaveOccurred())
			}()
		}
		wg.Wait()

		got, err := env.cards.GetByID(env.ctx, c.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Likes).To(Equal([]string{owner.ID}))
	})

	It("reports a missing card on like and delete", func() {
		_, err := env.cards.AddLike(env.ctx, ref.New(), ref.New())
		Expect(errors.Is(err, card.ErrNotFound)).To(BeTrue())
		Expect(env.cards.Delete(env.ctx, ref.New())).To(BeIdenticalTo(card.ErrNotFound))
	})
})
