package sqlinline

const QInsertMilestone = `--sql 744e7986-40a5-4331-9212-ee9289e26aa8
insert into "Milestone" (title, description, amount, status, "campaignId")
values ($1::text, $2::text, $3::bigint, 'PENDING', $4::bigint)
returning id, timestamp;
`

const QSelectMilestoneByID = `--sql 572bcb8b-2ea7-42ba-99b1-7e684e4a061f
select id, title, description, amount, "proofUrl", status::text, timestamp, "campaignId"
from "Milestone"
where id = $1::bigint;
`

const QSelectMilestoneForUpdate = `--sql 78199df3-5bb7-4c3d-a1d3-c12946ee28af
select id, title, description, amount, "proofUrl", status::text, timestamp, "campaignId"
from "Milestone"
where id = $1::bigint
for update;
`

const QListMilestonesByCampaign = `--sql 69369d1e-ea45-473b-abc0-342f65f03ddc
select id, title, description, amount, "proofUrl", status::text, timestamp, "campaignId"
from "Milestone"
where "campaignId" = $1::bigint
order by id asc;
`

const QListMilestoneIDsByStatus = `--sql 102a5bad-3c73-4734-8c68-858fa6b372ef
select id
from "Milestone"
where status = $1::text::"MilestoneStatus"
  and id > $2::bigint
order by id asc
limit $3::int;
`

const QUpdateMilestoneStatus = `--sql 85a2e367-c461-4c24-8808-f1e1f12560a2
update "Milestone"
set status = $2::text::"MilestoneStatus"
where id = $1::bigint;
`

const QSetMilestoneProof = `--sql 48ee69ca-27c9-4ec5-bd3e-ca1214b32e11
update "Milestone"
set "proofUrl" = $2::text
where id = $1::bigint;
`

const QCountMilestoneDependents = `--sql 0626b284-1551-49f0-874d-69ea6775ecd9
select
    (select count(*) from "MilestoneVote" where "milestoneId" = $1::bigint) +
    (select count(*) from "Transaction" where "milestoneId" = $1::bigint);
`

const QDeleteMilestone = `--sql 2e3eb6da-ddfc-4e2e-a933-7540984d866a
delete from "Milestone"
where id = $1::bigint;
`

const QListUnmarkedPaidMilestones = `--sql f4ef850c-ab7b-407b-b214-7cc133c489c5
select m.id
from "Milestone" m
where m.status = 'APPROVED'
  and exists (
      select 1 from "Transaction" t
      where t."milestoneId" = m.id and t.type = 'PAYOUT' and t.status = 'COMPLETED'
  )
order by m.id;
`
