package sqlinline

const QSelectUserByID = `--sql 5c0ae0a4-1c32-4bc5-ae85-fbe6d8f73078
select id, email, name, credits, created_at, updated_at
from users
where id = $1::uuid
limit 1;
`

const QSelectUserIDByEmail = `--sql 9ea8720c-fc81-4934-b102-cea46b0037dc
select id
from users
where email = $1::text
limit 1;
`

const QSelectUserCredits = `--sql 254144c5-48d2-4a81-976d-44a43d415c00
select credits
from users
where id = $1::uuid
limit 1;
`
