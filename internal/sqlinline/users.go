package sqlinline

const QInsertUser = `--sql df674165-7198-434e-b63e-13bfdd26885a
insert into "User" (username, email, password, role)
values ($1::text, $2::text, $3::text, $4::text::"Role")
returning id, "createdAt";
`

const QSelectUserByID = `--sql c95de5fd-a546-4782-9cfa-44a3c5e2848d
select id, username, email, password, role::text, "createdAt"
from "User"
where id = $1::bigint;
`

const QSelectUserByEmail = `--sql 4dc0b810-90c3-4418-bdf2-491117e6d1c1
select id, username, email, password, role::text, "createdAt"
from "User"
where lower(email) = lower($1::text);
`

const QUpdateUserRole = `--sql fbd745cc-c391-45d3-93e3-a818b1a1c13d
update "User"
set role = $2::text::"Role"
where id = $1::bigint;
`

const QCountUserDependents = `--sql 311b2431-8e8b-4348-8171-3e2356a4e4d5
select
    (select count(*) from "Campaign" where "userId" = $1::bigint) +
    (select count(*) from "Donation" where "userId" = $1::bigint) +
    (select count(*) from "MilestoneVote" where "userId" = $1::bigint) +
    (select count(*) from "Transaction" where "userId" = $1::bigint);
`

const QDeleteUser = `--sql 8db82a4f-6e7f-43f6-8762-9bbff20ec756
delete from "User"
where id = $1::bigint;
`
