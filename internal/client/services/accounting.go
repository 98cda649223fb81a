package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/dashapi/internal/client/client"
	"github.com/dmitrijs2005/dashapi/internal/client/models"
	"github.com/dmitrijs2005/dashapi/internal/client/transport"
)

const accountsPath = "/accounting/accounts/"

// AccountingService is a typed pass-through to the accounting endpoints.
// It adds no business rules of its own.
type AccountingService interface {
	ListAccounts(ctx context.Context, params url.Values) (models.Page[models.Account], error)
	AllAccounts(ctx context.Context, params url.Values) ([]models.Account, error)
	GetAccount(ctx context.Context, id string) (models.Account, error)
	CreateAccount(ctx context.Context, acc models.NewAccount) (models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
	UploadStatement(ctx context.Context, accountID, fileName string, content []byte) (models.Statement, error)
}

type accountingService struct {
	r client.Requester
}

func NewAccountingService(r client.Requester) AccountingService {
	return &accountingService{r: r}
}

func accountPath(id string) string {
	return accountsPath + url.PathEscape(id) + "/"
}

func (s *accountingService) ListAccounts(ctx context.Context, params url.Values) (models.Page[models.Account], error) {
	return client.Get[models.Page[models.Account]](ctx, s.r, accountsPath, params)
}

// AllAccounts follows the next links until the last page.
func (s *accountingService) AllAccounts(ctx context.Context, params url.Values) ([]models.Account, error) {
	page, err := s.ListAccounts(ctx, params)
	if err != nil {
		return nil, err
	}
	all := page.Results
	for page.HasNext() {
		page, err = client.Get[models.Page[models.Account]](ctx, s.r, *page.Next, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch next page: %w", err)
		}
		all = append(all, page.Results...)
	}
	return all, nil
}

func (s *accountingService) GetAccount(ctx context.Context, id string) (models.Account, error) {
	return client.Get[models.Account](ctx, s.r, accountPath(id), nil)
}

func (s *accountingService) CreateAccount(ctx context.Context, acc models.NewAccount) (models.Account, error) {
	return client.Post[models.Account](ctx, s.r, accountsPath, acc)
}

func (s *accountingService) DeleteAccount(ctx context.Context, id string) error {
	return client.Delete(ctx, s.r, accountPath(id))
}

func (s *accountingService) UploadStatement(ctx context.Context, accountID, fileName string, content []byte) (models.Statement, error) {
	form := &transport.Form{
		Fields: map[string]string{"account": accountID},
		Files: []transport.FormFile{{
			Field:    "file",
			FileName: fileName,
			Content:  content,
		}},
	}
	return client.Upload[models.Statement](ctx, s.r, accountPath(accountID)+"statements/", form)
}
