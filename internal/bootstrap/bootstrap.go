// Package bootstrap seeds the initial data a fresh deployment needs: the
// admin account and the default CMS pages.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/store"
)

func Run(ctx context.Context, db *sql.DB, cfg *config.Config, log *logrus.Logger) error {
	if err := seedAdmin(ctx, db, cfg, log); err != nil {
		return err
	}
	return seedPages(ctx, db, log)
}

func seedAdmin(ctx context.Context, db *sql.DB, cfg *config.Config, log *logrus.Logger) error {
	if cfg.Admin.Phone == "" || cfg.Admin.Password == "" {
		log.Warn("admin credentials not configured, skipping admin bootstrap")
		return nil
	}

	phone, err := auth.NormalizePhone(cfg.Admin.Phone)
	if err != nil {
		return err
	}

	_, err = store.GetUserByPhone(ctx, db, phone)
	if err == nil {
		return nil
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		return err
	}

	hash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		return err
	}

	fullName := "Администратор"
	if _, err := store.CreateUser(ctx, db, store.CreateUserRequest{
		Phone:        phone,
		PasswordHash: hash,
		FullName:     &fullName,
		IsAdmin:      true,
	}); err != nil {
		return err
	}

	log.WithField("phone", phone).Info("admin user created")
	return nil
}

func seedPages(ctx context.Context, db *sql.DB, log *logrus.Logger) error {
	defaults := []store.CreatePageRequest{
		{
			Slug:    "faq",
			Title:   "Часто задаваемые вопросы",
			Content: "<h1>FAQ</h1><p>Здесь будут ответы на часто задаваемые вопросы.</p>",
		},
		{
			Slug:    "offer",
			Title:   "Договор оферты",
			Content: "<h1>Договор оферты</h1><p>Текст договора оферты.</p>",
		},
		{
			Slug:    "privacy",
			Title:   "Политика конфиденциальности",
			Content: "<h1>Политика конфиденциальности</h1><p>Текст политики конфиденциальности.</p>",
		},
		{
			Slug:    "about",
			Title:   "О проекте",
			Content: "<h1>О проекте DWC</h1><p>Информация о магазине дизайнерской одежды.</p>",
		},
	}

	for _, page := range defaults {
		page.IsPublished = true
		_, err := store.CreatePage(ctx, db, page)
		if err != nil {
			if errors.Is(err, database.ErrDuplicateSlug) {
				continue
			}
			return err
		}
		log.WithField("slug", page.Slug).Info("default page created")
	}
	return nil
}
