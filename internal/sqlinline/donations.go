package sqlinline

const QInsertDonation = `--sql 9b79c57c-3615-48a2-9d85-3426d5b3f7eb
insert into donations(id, campaign_id, donor_id, amount, anonymous, message, payment_method, properties, created_at)
values ($1::uuid, $2::text, $3::text, $4::numeric, $5::boolean, $6::text, $7::text, coalesce($8::jsonb, '{}'::jsonb), now())
returning created_at;
`

const QListDonations = `--sql 7a08e4f6-cb8a-42c4-bd7f-291d6e913edc
select id, campaign_id, donor_id, amount::text, anonymous, message, payment_method, properties, created_at
from donations
where campaign_id = $1::text
order by created_at desc, id
limit $2::int;
`
