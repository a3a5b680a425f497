package partners

import (
	"github.com/jackc/pgx/v5"

	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/repository"
)

var partnerColumns = []string{
	"object_code", "object_name", "partner_type", "tax_number", "category_id", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func partnerDescriptor() repository.Descriptor[*datamodel.BusinessPartner] {
	return repository.Descriptor[*datamodel.BusinessPartner]{
		ObjectType: datamodel.ObjectTypeBusinessPartner,
		Table:      "business_partner",
		Columns:    partnerColumns,
		Scan: func(row pgx.Row) (*datamodel.BusinessPartner, error) {
			p := &datamodel.BusinessPartner{}
			var categoryId *int
			err := row.Scan(
				&p.Id, &p.ObjectCode, &p.ObjectName, &p.PartnerType, &p.TaxNumber, &categoryId, &p.IsDeleted,
				&p.CreatedUser, &p.CreatedDateTime, &p.ModifiedUser, &p.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			if categoryId != nil {
				p.CategoryId = *categoryId
			}
			return p, nil
		},
		Args: func(p *datamodel.BusinessPartner) []any {
			return []any{
				p.ObjectCode, p.ObjectName, p.PartnerType, p.TaxNumber,
				repository.NullableId(p.CategoryId), p.IsDeleted,
				p.CreatedUser, p.CreatedDateTime, p.ModifiedUser, p.ModifiedDateTime,
			}
		},
	}
}

var addressColumns = []string{
	"linked_object_id", "linked_object_type", "object_code", "object_name",
	"address_type", "street", "city", "postal_code", "country", "is_primary", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func addressDescriptor() repository.Descriptor[*datamodel.PartnerAddress] {
	return repository.Descriptor[*datamodel.PartnerAddress]{
		ObjectType: datamodel.ObjectTypePartnerAddress,
		Table:      "partner_address",
		Columns:    addressColumns,
		Scan: func(row pgx.Row) (*datamodel.PartnerAddress, error) {
			a := &datamodel.PartnerAddress{}
			err := row.Scan(
				&a.Id, &a.LinkedObjectId, &a.LinkedObjectType, &a.ObjectCode, &a.ObjectName,
				&a.AddressType, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.IsPrimary, &a.IsDeleted,
				&a.CreatedUser, &a.CreatedDateTime, &a.ModifiedUser, &a.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			return a, nil
		},
		Args: func(a *datamodel.PartnerAddress) []any {
			return []any{
				a.LinkedObjectId, a.LinkedObjectType, a.ObjectCode, a.ObjectName,
				a.AddressType, a.Street, a.City, a.PostalCode, a.Country, a.IsPrimary, a.IsDeleted,
				a.CreatedUser, a.CreatedDateTime, a.ModifiedUser, a.ModifiedDateTime,
			}
		},
	}
}

var contactColumns = []string{
	"linked_object_id", "linked_object_type", "object_code", "object_name",
	"contact_type", "contact_value", "is_primary", "is_deleted",
	"created_user", "created_date_time", "modified_user", "modified_date_time",
}

func contactDescriptor() repository.Descriptor[*datamodel.PartnerContact] {
	return repository.Descriptor[*datamodel.PartnerContact]{
		ObjectType: datamodel.ObjectTypePartnerContact,
		Table:      "partner_contact",
		Columns:    contactColumns,
		Scan: func(row pgx.Row) (*datamodel.PartnerContact, error) {
			c := &datamodel.PartnerContact{}
			err := row.Scan(
				&c.Id, &c.LinkedObjectId, &c.LinkedObjectType, &c.ObjectCode, &c.ObjectName,
				&c.ContactType, &c.ContactValue, &c.IsPrimary, &c.IsDeleted,
				&c.CreatedUser, &c.CreatedDateTime, &c.ModifiedUser, &c.ModifiedDateTime)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Args: func(c *datamodel.PartnerContact) []any {
			return []any{
				c.LinkedObjectId, c.LinkedObjectType, c.ObjectCode, c.ObjectName,
				c.ContactType, c.ContactValue, c.IsPrimary, c.IsDeleted,
				c.CreatedUser, c.CreatedDateTime, c.ModifiedUser, c.ModifiedDateTime,
			}
		},
	}
}
